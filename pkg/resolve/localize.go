// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
	"github.com/envmod/envmod/pkg/repo"
)

// defaultLocalizeWorkers bounds concurrent downloads. Destination paths are
// disjoint per spec, so parallel transfers are safe.
const defaultLocalizeWorkers = 4

type (
	// Localizer materializes resolved specs into a destination local
	// repository. Specs already readable on local storage are wrapped as-is;
	// remote-backed specs are downloaded. Failures are collected per spec,
	// and specs localized before a failure are kept.
	Localizer struct {
		// Dest is the local repository modules are downloaded into.
		Dest *repo.LocalRepo
		// Overwrite permits replacing an existing destination module.
		Overwrite bool
		// Workers bounds concurrent downloads; zero means the default.
		Workers int
	}

	// LocalizeError reports a single spec that failed to materialize.
	LocalizeError struct {
		// Spec is the real_name of the failed spec.
		Spec string
		// Err is the underlying repository error.
		Err error
	}
)

// Error implements the error interface.
func (e *LocalizeError) Error() string {
	return fmt.Sprintf("localize %s: %v", e.Spec, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LocalizeError) Unwrap() error { return e.Err }

// NewLocalizer creates a localizer targeting dest.
func NewLocalizer(dest *repo.LocalRepo) *Localizer {
	return &Localizer{Dest: dest}
}

// Localize materializes every spec, preserving input order. On partial
// failure the returned references hold the specs that did materialize and the
// error joins one LocalizeError per failed spec.
func (l *Localizer) Localize(ctx context.Context, specs []*envmod.ModuleSpec) ([]envmod.Reference, error) {
	workers := l.Workers
	if workers <= 0 {
		workers = defaultLocalizeWorkers
	}

	refs := make([]envmod.Reference, len(specs))
	errs := make([]error, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, spec := range specs {
		g.Go(func() error {
			ref, err := l.localizeOne(ctx, spec)
			if err != nil {
				errs[i] = &LocalizeError{Spec: spec.RealName(), Err: err}
				return nil
			}
			refs[i] = ref
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		kept := refs[:0]
		for i, ref := range refs {
			if errs[i] == nil {
				kept = append(kept, ref)
			}
		}
		return kept, err
	}
	return refs, nil
}

func (l *Localizer) localizeOne(ctx context.Context, spec *envmod.ModuleSpec) (envmod.Reference, error) {
	if path, ok := spec.Repo.LocalPath(spec); ok {
		mod, err := envmod.LoadModule(path)
		if err != nil {
			return envmod.Reference{}, err
		}
		return envmod.Materialized(spec, mod), nil
	}

	dest := l.Dest.ModulePath(spec.RealName())
	mod, err := spec.Repo.Download(ctx, spec, dest, l.Overwrite)
	if err != nil {
		// A module localized by an earlier session is still good.
		if errors.Is(err, envmod.ErrModuleExists) {
			if existing, loadErr := envmod.LoadModule(dest); loadErr == nil {
				return envmod.Materialized(spec, existing), nil
			}
		}
		return envmod.Reference{}, err
	}
	logx.Debug("localized", "module", spec.RealName(), "from", spec.Repo.Name(), "to", l.Dest.Name())
	return envmod.Materialized(spec, mod), nil
}
