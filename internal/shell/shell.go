// SPDX-License-Identifier: MPL-2.0

// Package shell spawns the session a composed environment is handed to:
// either the user's native shell or the embedded virtual interpreter for
// one-shot commands.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// IO bundles the standard streams a launched shell inherits.
type IO struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// StdIO returns the process standard streams.
func StdIO() IO {
	return IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// defaultShell resolves the user's shell: $SHELL, falling back to /bin/sh,
// or %ComSpec% (cmd.exe) on Windows.
func defaultShell() (name string, oneShotFlag string) {
	if runtime.GOOS == "windows" {
		shell := os.Getenv("ComSpec")
		if shell == "" {
			shell = "cmd.exe"
		}
		return shell, "/c"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, "-c"
}

// Launch starts an interactive native shell with env as its full environment
// and blocks until it exits, returning the shell's exit code.
func Launch(ctx context.Context, env []string, io IO) (int, error) {
	name, _ := defaultShell()
	cmd := exec.CommandContext(ctx, name)
	cmd.Env = env
	cmd.Stdin = io.Stdin
	cmd.Stdout = io.Stdout
	cmd.Stderr = io.Stderr
	return run(cmd)
}

// Run executes a one-shot command line through the native shell with env as
// its full environment.
func Run(ctx context.Context, command string, env []string, io IO) (int, error) {
	name, flag := defaultShell()
	cmd := exec.CommandContext(ctx, name, flag, command)
	cmd.Env = env
	cmd.Stdin = io.Stdin
	cmd.Stdout = io.Stdout
	cmd.Stderr = io.Stderr
	return run(cmd)
}

func run(cmd *exec.Cmd) (int, error) {
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

// RunVirtual executes a one-shot command line in the embedded POSIX shell
// interpreter instead of spawning the user's shell. Useful on hosts without
// a usable system shell.
func RunVirtual(ctx context.Context, command string, env []string, io IO) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return 1, fmt.Errorf("command syntax error: %w", err)
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(io.Stdin, io.Stdout, io.Stderr),
	)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return int(exitStatus), nil
		}
		return 1, err
	}
	return 0, nil
}
