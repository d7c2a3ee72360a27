// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// HookFunc runs a global lifecycle hook for a module path. Create invokes it
// for the pre_create and post_create points when non-nil; the CLI wires the
// hook runner in here so the core stays free of process-spawning concerns.
type HookFunc func(ctx context.Context, point, modulePath string) error

// Create scaffolds a new module at dir: the module.yml document plus an empty
// hooks directory. It fails when dir already exists. The pre_create hook runs
// before anything is written so it can veto creation; post_create runs after.
func Create(ctx context.Context, dir string, meta *Metadata, runHook HookFunc) (*Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err == nil {
		return nil, fmt.Errorf("module already exists at %s: %w", abs, ErrModuleExists)
	}
	if err := meta.Validate(); err != nil {
		return nil, &ConfigError{Path: filepath.Join(abs, MetadataFileName), Err: err}
	}

	if runHook != nil {
		if err := runHook(ctx, "pre_create", abs); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Join(abs, HooksDirName), 0o755); err != nil {
		return nil, err
	}
	if err := WriteMetadata(abs, meta); err != nil {
		return nil, err
	}

	if runHook != nil {
		if err := runHook(ctx, "post_create", abs); err != nil {
			return nil, err
		}
	}

	return &Module{Path: abs, Metadata: meta}, nil
}
