// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/envmod/envmod/pkg/envmod"
)

// ErrDuplicateRepo is returned when a repository name is already registered.
var ErrDuplicateRepo = errors.New("repository already registered")

// Registry is an ordered set of repositories with unique names. Search order
// is registration order; it is owned by the session, not process-global, so
// independent resolution contexts stay isolated.
type Registry struct {
	repos []envmod.Repo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a repository; the name must be unused.
func (r *Registry) Add(repo envmod.Repo) error {
	return r.Insert(len(r.repos), repo)
}

// Insert places a repository at idx in the search order.
func (r *Registry) Insert(idx int, repo envmod.Repo) error {
	if _, ok := r.Get(repo.Name()); ok {
		return fmt.Errorf("%s: %w", repo.Name(), ErrDuplicateRepo)
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(r.repos) {
		idx = len(r.repos)
	}
	r.repos = slices.Insert(r.repos, idx, repo)
	return nil
}

// Remove unregisters a repository by name.
func (r *Registry) Remove(name string) bool {
	for i, repo := range r.repos {
		if repo.Name() == name {
			r.repos = slices.Delete(r.repos, i, i+1)
			return true
		}
	}
	return false
}

// Get returns a repository by name.
func (r *Registry) Get(name string) (envmod.Repo, bool) {
	for _, repo := range r.repos {
		if repo.Name() == name {
			return repo, true
		}
	}
	return nil, false
}

// Repos returns the repositories in search order. The slice is a copy.
func (r *Registry) Repos() []envmod.Repo {
	return slices.Clone(r.repos)
}

// Len returns the number of registered repositories.
func (r *Registry) Len() int { return len(r.repos) }
