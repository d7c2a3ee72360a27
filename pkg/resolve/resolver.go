// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
)

// Sentinel kinds wrapped by ResolveError. Callers branch with errors.Is.
var (
	// ErrUnresolved reports a requirement no repository could satisfy.
	ErrUnresolved = errors.New("unresolved requirement")
	// ErrCycle reports a dependency cycle on the expansion path.
	ErrCycle = errors.New("dependency cycle")
	// ErrConflict reports transitive requirements that cannot agree on one
	// version of a module.
	ErrConflict = errors.New("conflicting requirements")
)

type (
	// Resolver expands requirements into a flattened, dependency-ordered
	// list of module specs. Repositories are searched in the given order;
	// the first repository satisfying a requirement is authoritative, so
	// same-named modules from different repositories never mix.
	Resolver struct {
		repos []envmod.Repo
	}

	// ResolveError reports a failed resolution.
	ResolveError struct {
		// Requirement is the raw requirement text being resolved.
		Requirement string
		// Path is the expansion path from the root requirement to the
		// failure, by module name. Empty for root-level failures.
		Path []string
		// Prior is the real_name of the earlier resolution a conflicting
		// requirement clashed with. Set only for ErrConflict.
		Prior string
		// Err is one of ErrUnresolved, ErrCycle, ErrConflict.
		Err error
	}

	// resolution is the shared bookkeeping of a single Resolve call. It is
	// order-dependent and must stay serialized.
	resolution struct {
		ctx      context.Context
		repos    []envmod.Repo
		resolved map[string]*envmod.ModuleSpec
		visiting map[string]bool
		path     []string
		out      []*envmod.ModuleSpec
	}
)

// Error implements the error interface.
func (e *ResolveError) Error() string {
	switch {
	case errors.Is(e.Err, ErrCycle):
		return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Path, " -> "))
	case errors.Is(e.Err, ErrConflict):
		return fmt.Sprintf("%v: %q does not accept already-resolved %s", e.Err, e.Requirement, e.Prior)
	default:
		return fmt.Sprintf("%v: %q", e.Err, e.Requirement)
	}
}

// Unwrap returns the sentinel kind.
func (e *ResolveError) Unwrap() error { return e.Err }

// NewResolver creates a resolver over repositories in search order.
func NewResolver(repos []envmod.Repo) *Resolver {
	return &Resolver{repos: repos}
}

// Resolve expands the requirements into dependency order: every spec's
// transitive dependencies precede it, and specs with no ordering constraint
// between them keep first-resolved order.
func (r *Resolver) Resolve(ctx context.Context, reqs []envmod.Requirement) ([]*envmod.ModuleSpec, error) {
	s := &resolution{
		ctx:      ctx,
		repos:    r.repos,
		resolved: make(map[string]*envmod.ModuleSpec),
		visiting: make(map[string]bool),
	}
	for _, req := range reqs {
		if err := s.visit(req); err != nil {
			return nil, err
		}
	}
	return s.out, nil
}

// ResolveStrings parses and resolves raw requirement strings.
func (r *Resolver) ResolveStrings(ctx context.Context, raw []string) ([]*envmod.ModuleSpec, error) {
	reqs, err := envmod.ParseRequirements(raw)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, reqs)
}

func (s *resolution) visit(req envmod.Requirement) error {
	if prior, ok := s.prior(req); ok {
		if req.Matches(prior) {
			return nil
		}
		return s.fail(req, ErrConflict, prior.RealName())
	}
	if s.visiting[req.Name] {
		return &ResolveError{
			Requirement: req.Raw,
			Path:        append(append([]string{}, s.path...), req.Name),
			Err:         ErrCycle,
		}
	}

	spec, err := s.findFirst(req)
	if err != nil {
		return err
	}
	// A real_name requirement bypasses the name-keyed guard above; cycles
	// and conflicts are tracked under the name the spec actually carries,
	// so both get re-checked here.
	if s.visiting[spec.Name] {
		return &ResolveError{
			Requirement: req.Raw,
			Path:        append(append([]string{}, s.path...), spec.Name),
			Err:         ErrCycle,
		}
	}
	if prior, ok := s.resolved[spec.Name]; ok {
		if prior.RealName() == spec.RealName() {
			return nil
		}
		return s.fail(req, ErrConflict, prior.RealName())
	}

	s.visiting[spec.Name] = true
	s.path = append(s.path, spec.Name)

	deps, err := spec.Requirements()
	if err != nil {
		return fmt.Errorf("requires of %s: %w", spec.RealName(), err)
	}
	for _, dep := range deps {
		if err := s.visit(dep); err != nil {
			return err
		}
	}

	s.path = s.path[:len(s.path)-1]
	delete(s.visiting, spec.Name)

	s.resolved[spec.Name] = spec
	s.out = append(s.out, spec)
	logx.Debug("resolved", "module", spec.RealName(), "repo", spec.Repo.Name())
	return nil
}

// prior returns the already-resolved spec a requirement targets, matching by
// module name or by real_name.
func (s *resolution) prior(req envmod.Requirement) (*envmod.ModuleSpec, bool) {
	if spec, ok := s.resolved[req.Name]; ok {
		return spec, true
	}
	for _, spec := range s.resolved {
		if spec.RealName() == req.Name {
			return spec, true
		}
	}
	return nil, false
}

// findFirst searches the repositories in order and selects the best match
// from the first repository that yields any. Find returns candidates sorted
// by version descending, so the head is the highest satisfying version.
func (s *resolution) findFirst(req envmod.Requirement) (*envmod.ModuleSpec, error) {
	for _, repo := range s.repos {
		specs, err := repo.Find(s.ctx, req)
		if err != nil {
			return nil, err
		}
		if len(specs) > 0 {
			return specs[0], nil
		}
	}
	return nil, s.fail(req, ErrUnresolved, "")
}

func (s *resolution) fail(req envmod.Requirement, kind error, prior string) *ResolveError {
	return &ResolveError{
		Requirement: req.Raw,
		Path:        append([]string{}, s.path...),
		Prior:       prior,
		Err:         kind,
	}
}
