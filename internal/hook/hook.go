// SPDX-License-Identifier: MPL-2.0

// Package hook runs module lifecycle scripts. A hook is an executable named
// after its lifecycle point inside a module's hooks directory, invoked with
// the module root as its single argument. Each hook runs at most once per
// module and point within one runner's lifetime.
package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/envmod/envmod/internal/logx"
)

// Point is a lifecycle point name.
type Point string

// Lifecycle points. Activation points live in each module's hooks directory;
// creation points are global to the home repository.
const (
	PreActivate  Point = "pre_activate"
	PostActivate Point = "post_activate"
	PreCreate    Point = "pre_create"
	PostCreate   Point = "post_create"
)

type (
	// Result reports one hook invocation.
	Result struct {
		// Ran is false when no script exists for the point.
		Ran bool
		// Output is the combined stdout and stderr of the script.
		Output string
	}

	// HookError reports a hook script that exited non-zero.
	HookError struct {
		// Point is the lifecycle point.
		Point Point
		// Script is the script path.
		Script string
		// ExitCode is the script's exit status.
		ExitCode int
		// Output is the combined stdout and stderr of the script.
		Output string
	}

	// Runner executes hook scripts, deduplicating by (script, point) so a
	// module activated twice in one session runs each hook once.
	Runner struct {
		mu  sync.Mutex
		ran map[string]bool
	}
)

// Error implements the error interface.
func (e *HookError) Error() string {
	msg := fmt.Sprintf("hook %s exited %d: %s", e.Point, e.ExitCode, e.Script)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// NewRunner creates a hook runner with an empty dedup set.
func NewRunner() *Runner {
	return &Runner{ran: make(map[string]bool)}
}

// Run executes the script for point from hooksDir, passing modulePath as the
// single argument. A missing hooks directory or script is not an error; the
// result reports Ran false. A repeated invocation for the same script and
// point is a no-op.
func (r *Runner) Run(ctx context.Context, hooksDir string, point Point, modulePath string) (Result, error) {
	script := filepath.Join(hooksDir, string(point))
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return Result{}, nil
	}

	r.mu.Lock()
	if r.ran[script] {
		r.mu.Unlock()
		return Result{}, nil
	}
	r.ran[script] = true
	r.mu.Unlock()

	logx.Debug("running hook", "point", point, "script", script)
	// The module root is passed as an argument, not used as the working
	// directory: pre_create runs before the root exists.
	cmd := exec.CommandContext(ctx, script, modulePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Ran: true, Output: string(out)}, &HookError{
				Point:    point,
				Script:   script,
				ExitCode: exitErr.ExitCode(),
				Output:   string(out),
			}
		}
		return Result{}, fmt.Errorf("hook %s: %w", point, err)
	}
	return Result{Ran: true, Output: string(out)}, nil
}
