// SPDX-License-Identifier: MPL-2.0

// Package repo provides the concrete repository variants behind the
// envmod.Repo capability interface — a filesystem-backed local repository,
// an HTTP-backed remote repository, a git-backed remote repository — and the
// ordered, session-owned repository registry.
package repo
