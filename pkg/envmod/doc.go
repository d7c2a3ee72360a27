// SPDX-License-Identifier: MPL-2.0

// Package envmod defines the core data model for environment modules:
// requirements, versions, module metadata, materialized modules, and the
// repository capability interface that local and remote stores implement.
package envmod
