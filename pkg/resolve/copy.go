// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/envmod/envmod/pkg/envmod"
)

// Copier transfers resolved specs from their owning repositories into a
// destination repository through a transient local staging directory. The
// staging directory is removed on every exit path.
type Copier struct {
	// Overwrite permits replacing modules the destination already holds.
	Overwrite bool
}

// Copy stages each spec locally and uploads it to dest. Failures are
// collected per spec; specs copied before a failure stay copied.
func (c *Copier) Copy(ctx context.Context, specs []*envmod.ModuleSpec, dest envmod.Repo) ([]*envmod.ModuleSpec, error) {
	staging, err := os.MkdirTemp("", "envmod-copy-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	var (
		copied []*envmod.ModuleSpec
		errs   []error
	)
	for _, spec := range specs {
		uploaded, err := c.copyOne(ctx, spec, dest, staging)
		if err != nil {
			errs = append(errs, fmt.Errorf("copy %s to %s: %w", spec.RealName(), dest.Name(), err))
			continue
		}
		copied = append(copied, uploaded)
	}
	return copied, errors.Join(errs...)
}

func (c *Copier) copyOne(ctx context.Context, spec *envmod.ModuleSpec, dest envmod.Repo, staging string) (*envmod.ModuleSpec, error) {
	staged := filepath.Join(staging, spec.RealName())
	mod, err := spec.Repo.Download(ctx, spec, staged, true)
	if err != nil {
		return nil, err
	}
	return dest.Upload(ctx, mod, c.Overwrite)
}
