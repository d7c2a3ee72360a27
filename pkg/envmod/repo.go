// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel kinds wrapped by RepoError. Callers branch with errors.Is.
var (
	// ErrModuleExists reports a destination that already holds the module
	// while overwrite was not permitted.
	ErrModuleExists = errors.New("module already exists")
	// ErrModuleNotFound reports a module absent from the repository.
	ErrModuleNotFound = errors.New("module not found")
)

type (
	// Repo is the repository capability surface. Local and remote variants
	// implement the same contract; resolver, localizer and copier dispatch
	// only through this interface and never inspect the concrete kind.
	Repo interface {
		// Name returns the unique registry name of the repository.
		Name() string

		// List enumerates every module visible in the repository. Entries
		// with malformed metadata are skipped, not fatal.
		List(ctx context.Context) ([]*ModuleSpec, error)

		// Find returns the specs matching a requirement, sorted by version
		// descending.
		Find(ctx context.Context, req Requirement) ([]*ModuleSpec, error)

		// Download materializes a copy of the spec at dest. When dest exists
		// and overwrite is false it fails with ErrModuleExists and leaves
		// dest untouched; with overwrite the replacement is atomic-or-fail.
		Download(ctx context.Context, spec *ModuleSpec, dest string, overwrite bool) (*Module, error)

		// Upload stores a local module into the repository keyed by its
		// real_name, with the same overwrite contract as Download.
		Upload(ctx context.Context, module *Module, overwrite bool) (*ModuleSpec, error)

		// Remove deletes the module's storage; it fails with
		// ErrModuleNotFound when the spec is absent.
		Remove(ctx context.Context, spec *ModuleSpec) error

		// LocalPath returns the directory a spec is readable at, when the
		// repository can expose specs as local storage. Activation requires
		// this capability; remote variants return false.
		LocalPath(spec *ModuleSpec) (string, bool)
	}

	// RepoError reports a failed repository operation.
	RepoError struct {
		// Repo is the repository name.
		Repo string
		// Op is the failed operation (list, find, download, upload, remove).
		Op string
		// Err is the underlying cause, possibly one of the sentinel kinds.
		Err error
	}
)

// Error implements the error interface.
func (e *RepoError) Error() string {
	return fmt.Sprintf("repo %s: %s: %v", e.Repo, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RepoError) Unwrap() error { return e.Err }
