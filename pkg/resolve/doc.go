// SPDX-License-Identifier: MPL-2.0

// Package resolve turns requirement strings into dependency-ordered module
// specs and materializes them on local storage. The resolver walks an ordered
// repository list; the localizer and copier move resolved modules between
// repositories without ever branching on the repository kind.
package resolve
