// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
)

type (
	// LocalRepo is a filesystem-backed repository: one module per
	// subdirectory named by real_name, each holding a module.yml.
	LocalRepo struct {
		name string
		path string
	}
)

var _ envmod.Repo = (*LocalRepo)(nil)

// NewLocalRepo creates a local repository over a root directory. The
// directory does not need to exist yet; List over a missing root is empty.
func NewLocalRepo(name, path string) *LocalRepo {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &LocalRepo{name: name, path: abs}
}

// Name returns the registry name of the repository.
func (r *LocalRepo) Name() string { return r.name }

// Path returns the repository root directory.
func (r *LocalRepo) Path() string { return r.path }

// ModulePath returns where a module with the given real_name is stored.
func (r *LocalRepo) ModulePath(realName string) string {
	return filepath.Join(r.path, realName)
}

// List enumerates the modules under the repository root. Subdirectories with
// malformed metadata are skipped with a debug log, not fatal.
func (r *LocalRepo) List(ctx context.Context) ([]*envmod.ModuleSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &envmod.RepoError{Repo: r.name, Op: "list", Err: err}
	}

	var specs []*envmod.ModuleSpec
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		moduleRoot := filepath.Join(r.path, entry.Name())
		meta, err := envmod.ReadMetadata(moduleRoot)
		if err != nil {
			logx.Debug("skipping module with invalid metadata", "repo", r.name, "path", moduleRoot, "err", err)
			continue
		}
		specs = append(specs, &envmod.ModuleSpec{
			Name:     meta.Name,
			Version:  envmod.ParseVersion(meta.Version),
			Locator:  moduleRoot,
			Repo:     r,
			Metadata: meta,
		})
	}
	return specs, nil
}

// Find returns the specs matching a requirement, sorted by version descending.
func (r *LocalRepo) Find(ctx context.Context, req envmod.Requirement) ([]*envmod.ModuleSpec, error) {
	specs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterAndSort(specs, req), nil
}

// Download materializes a copy of the spec at dest with the atomic-or-fail
// overwrite contract.
func (r *LocalRepo) Download(ctx context.Context, spec *envmod.ModuleSpec, dest string, overwrite bool) (*envmod.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := spec.Locator
	if _, err := os.Stat(filepath.Join(src, envmod.MetadataFileName)); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: fmt.Errorf("%s: %w", spec.RealName(), envmod.ErrModuleNotFound)}
	}

	if err := r.transfer(src, dest, overwrite); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}
	return envmod.LoadModule(dest)
}

// Upload stores a local module under the repository root keyed by real_name.
func (r *LocalRepo) Upload(ctx context.Context, module *envmod.Module, overwrite bool) (*envmod.ModuleSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dest := r.ModulePath(module.RealName())
	if err := r.transfer(module.Path, dest, overwrite); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}
	return &envmod.ModuleSpec{
		Name:     module.Name(),
		Version:  module.Version(),
		Locator:  dest,
		Repo:     r,
		Metadata: module.Metadata,
	}, nil
}

// Remove deletes the module's storage.
func (r *LocalRepo) Remove(ctx context.Context, spec *envmod.ModuleSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := spec.Locator
	if target == "" {
		target = r.ModulePath(spec.RealName())
	}
	rel, err := filepath.Rel(r.path, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: fmt.Errorf("%s is outside repository root", target)}
	}
	if _, err := os.Stat(target); err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: fmt.Errorf("%s: %w", spec.RealName(), envmod.ErrModuleNotFound)}
	}
	if err := os.RemoveAll(target); err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: err}
	}
	return nil
}

// LocalPath reports the directory the spec is readable at.
func (r *LocalRepo) LocalPath(spec *envmod.ModuleSpec) (string, bool) {
	if spec.Locator == "" {
		return "", false
	}
	return spec.Locator, true
}

// transfer stages a full copy of src next to dest and swaps it into place.
func (r *LocalRepo) transfer(src, dest string, overwrite bool) error {
	stage, err := stageDir(dest)
	if err != nil {
		return err
	}
	defer os.RemoveAll(stage)

	staged := filepath.Join(stage, "module")
	if err := copyDir(src, staged); err != nil {
		return err
	}
	if err := replaceDir(staged, dest, overwrite); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", dest, envmod.ErrModuleExists)
		}
		return err
	}
	return nil
}

// filterAndSort keeps the specs a requirement matches, newest version first.
func filterAndSort(specs []*envmod.ModuleSpec, req envmod.Requirement) []*envmod.ModuleSpec {
	var matched []*envmod.ModuleSpec
	for _, spec := range specs {
		if req.Matches(spec) {
			matched = append(matched, spec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Version.Compare(matched[j].Version) > 0
	})
	return matched
}
