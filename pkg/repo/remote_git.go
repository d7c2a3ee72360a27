// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
)

type (
	// GitRepo is a network-backed repository stored as a git repository
	// whose working tree holds one module directory per real_name. A local
	// mirror clone under mirrorDir is the transport cache: list, find and
	// download read the synced mirror; upload and remove commit to it and
	// push. The mirror is synced at most once per session.
	GitRepo struct {
		name      string
		url       string
		mirrorDir string

		mu     sync.Mutex
		synced bool
	}
)

var _ envmod.Repo = (*GitRepo)(nil)

// NewGitRepo creates a git repository mirror under cacheDir.
func NewGitRepo(name, gitURL, cacheDir string) *GitRepo {
	return &GitRepo{
		name:      name,
		url:       gitURL,
		mirrorDir: filepath.Join(cacheDir, "git", mirrorKey(gitURL)),
	}
}

// Name returns the registry name of the repository.
func (r *GitRepo) Name() string { return r.name }

// URL returns the git remote URL.
func (r *GitRepo) URL() string { return r.url }

// List enumerates the modules in the synced mirror working tree.
func (r *GitRepo) List(ctx context.Context) ([]*envmod.ModuleSpec, error) {
	if err := r.sync(ctx); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "list", Err: err}
	}
	specs, err := r.mirror().List(ctx)
	if err != nil {
		return nil, err
	}
	// Rebind ownership: the mirror is transport detail, not the repository.
	for _, spec := range specs {
		spec.Repo = r
	}
	return specs, nil
}

// Find returns the specs matching a requirement, newest first.
func (r *GitRepo) Find(ctx context.Context, req envmod.Requirement) ([]*envmod.ModuleSpec, error) {
	specs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterAndSort(specs, req), nil
}

// Download copies the module out of the mirror working tree.
func (r *GitRepo) Download(ctx context.Context, spec *envmod.ModuleSpec, dest string, overwrite bool) (*envmod.Module, error) {
	if err := r.sync(ctx); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}
	mod, err := r.mirror().Download(ctx, spec, dest, overwrite)
	if err != nil {
		var repoErr *envmod.RepoError
		if errors.As(err, &repoErr) {
			repoErr.Repo = r.name
		}
		return nil, err
	}
	return mod, nil
}

// Upload copies a module into the mirror working tree, commits and pushes.
func (r *GitRepo) Upload(ctx context.Context, module *envmod.Module, overwrite bool) (*envmod.ModuleSpec, error) {
	if err := r.sync(ctx); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}

	spec, err := r.mirror().Upload(ctx, module, overwrite)
	if err != nil {
		var repoErr *envmod.RepoError
		if errors.As(err, &repoErr) {
			repoErr.Repo = r.name
		}
		return nil, err
	}
	spec.Repo = r

	msg := fmt.Sprintf("Publish %s", module.RealName())
	if err := r.commitAndPush(ctx, msg); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}
	return spec, nil
}

// Remove deletes the module from the mirror working tree, commits and pushes.
func (r *GitRepo) Remove(ctx context.Context, spec *envmod.ModuleSpec) error {
	if err := r.sync(ctx); err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: err}
	}

	if err := r.mirror().Remove(ctx, spec); err != nil {
		var repoErr *envmod.RepoError
		if errors.As(err, &repoErr) {
			repoErr.Repo = r.name
		}
		return err
	}

	msg := fmt.Sprintf("Remove %s", spec.RealName())
	if err := r.commitAndPush(ctx, msg); err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: err}
	}
	return nil
}

// LocalPath always reports false: the mirror is a transport cache, and
// activation must go through localization.
func (r *GitRepo) LocalPath(*envmod.ModuleSpec) (string, bool) { return "", false }

// mirror returns a local-repo view over the mirror working tree.
func (r *GitRepo) mirror() *LocalRepo {
	return NewLocalRepo(r.name, r.mirrorDir)
}

// sync clones the remote on first use and pulls on later sessions. A failed
// pull is tolerated; the existing checkout may already hold what is needed.
func (r *GitRepo) sync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.synced {
		return nil
	}

	repo, err := git.PlainOpen(r.mirrorDir)
	if err != nil {
		if err := os.MkdirAll(filepath.Dir(r.mirrorDir), 0o755); err != nil {
			return err
		}
		if _, err := git.PlainCloneContext(ctx, r.mirrorDir, false, &git.CloneOptions{URL: r.url}); err != nil {
			return fmt.Errorf("cloning %s: %w", r.url, err)
		}
		r.synced = true
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"}); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		logx.Warn("git pull failed, using existing mirror", "repo", r.name, "err", err)
	}

	r.synced = true
	return nil
}

// commitAndPush stages everything in the mirror, commits and pushes.
func (r *GitRepo) commitAndPush(ctx context.Context, message string) error {
	repo, err := git.PlainOpen(r.mirrorDir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return err
	}
	if _, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "envmod", Email: "envmod@localhost", When: time.Now()},
	}); err != nil {
		return err
	}
	if err := repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin"}); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing to %s: %w", r.url, err)
	}
	return nil
}

// mirrorKey converts a git URL into a path-safe cache key.
func mirrorKey(gitURL string) string {
	key := strings.TrimPrefix(gitURL, "https://")
	key = strings.TrimPrefix(key, "ssh://")
	key = strings.TrimPrefix(key, "git@")
	key = strings.TrimSuffix(key, ".git")
	key = strings.ReplaceAll(key, ":", "/")
	return filepath.FromSlash(key)
}
