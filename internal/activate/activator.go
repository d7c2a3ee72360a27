// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/envmod/envmod/internal/hook"
	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
)

type (
	// Activator applies dependency-ordered module batches to an environment.
	// Input must be materialized references in dependency-first order; the
	// activator never touches repositories. Activation is fail-fast without
	// rollback: modules activated before a failing one stay active.
	Activator struct {
		env    Environ
		hooks  *hook.Runner
		active *ActiveSet

		// mu serializes merge + register + persist so concurrent activation
		// attempts in one process cannot interleave partial environments.
		mu sync.Mutex
	}

	// NotMaterializedError reports an activation attempt over a spec that
	// has no local storage. The caller must localize first.
	NotMaterializedError struct {
		// Spec is the real_name of the unmaterialized spec.
		Spec string
	}
)

// Error implements the error interface.
func (e *NotMaterializedError) Error() string {
	return fmt.Sprintf("module %s is not materialized locally; localize it first", e.Spec)
}

// NewActivator creates an activator over env, resuming the given active set.
// A nil active set starts empty.
func NewActivator(env Environ, active *ActiveSet) *Activator {
	if active == nil {
		active = &ActiveSet{}
	}
	return &Activator{env: env, hooks: hook.NewRunner(), active: active}
}

// Active returns the activator's registry.
func (a *Activator) Active() *ActiveSet { return a.active }

// Activate applies the references in order: per module, the pre_activate
// hook runs first and a non-zero exit aborts the batch; then the module's
// environment deltas are merged and applied, the module registered and the
// registry persisted; finally post_activate runs, with failures logged but
// not fatal.
func (a *Activator) Activate(ctx context.Context, refs []envmod.Reference) ([]*envmod.Module, error) {
	modules := make([]*envmod.Module, len(refs))
	for i, ref := range refs {
		mod, ok := ref.Module()
		if !ok {
			return nil, &NotMaterializedError{Spec: ref.Spec().RealName()}
		}
		modules[i] = mod
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var activated []*envmod.Module
	for _, mod := range modules {
		// Re-activation replaces, never duplicates: an already-active module
		// keeps its registration and its merged environment.
		if a.active.Contains(mod.RealName()) {
			activated = append(activated, mod)
			continue
		}

		if _, err := a.hooks.Run(ctx, mod.HooksDir(), hook.PreActivate, mod.Path); err != nil {
			return activated, fmt.Errorf("activating %s: %w", mod.RealName(), err)
		}

		if err := applyChanges(a.env, mergeModule(a.env, mod.Metadata)); err != nil {
			return activated, fmt.Errorf("activating %s: %w", mod.RealName(), err)
		}
		a.active.Add(mod.RealName())
		if err := a.persist(); err != nil {
			return activated, err
		}
		activated = append(activated, mod)
		logx.Debug("activated", "module", mod.RealName())

		if _, err := a.hooks.Run(ctx, mod.HooksDir(), hook.PostActivate, mod.Path); err != nil {
			var hookErr *hook.HookError
			if errors.As(err, &hookErr) {
				logx.Warn("post_activate hook failed", "module", mod.RealName(), "exit", hookErr.ExitCode)
				continue
			}
			logx.Warn("post_activate hook failed", "module", mod.RealName(), "err", err)
		}
	}
	return activated, nil
}

// Deactivate unregisters real_names and persists the registry. Environment
// changes applied at activation time are not unwound; a fresh environment
// comes from launching a new session.
func (a *Activator) Deactivate(realNames []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, name := range realNames {
		if !a.active.Remove(name) {
			logx.Warn("not active", "module", name)
		}
	}
	return a.persist()
}

// persist serializes the registry to the active-modules variable. Callers
// hold mu.
func (a *Activator) persist() error {
	return a.env.Set(ActiveModulesVar, a.active.Serialized())
}
