// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/envmod/envmod/internal/hook"
	"github.com/envmod/envmod/pkg/envmod"
)

var sep = string(os.PathListSeparator)

// newModule materializes a module fixture and returns its reference.
func newModule(t *testing.T, name, version string, env envmod.Environment) envmod.Reference {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name+"-"+version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	meta := &envmod.Metadata{Name: name, Version: version, Environment: env}
	if err := envmod.WriteMetadata(dir, meta); err != nil {
		t.Fatal(err)
	}
	mod, err := envmod.LoadModule(dir)
	if err != nil {
		t.Fatal(err)
	}
	return envmod.Materialized(mod.Spec(nil), mod)
}

func writeHook(t *testing.T, ref envmod.Reference, point hook.Point, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts are POSIX shell")
	}
	mod, _ := ref.Module()
	if err := os.MkdirAll(mod.HooksDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(mod.HooksDir(), string(point))
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func prependOps(value string) envmod.EnvOps {
	return envmod.EnvOps{{Kind: envmod.EnvPrepend, Value: value}}
}

func TestActivatePrependOrdering(t *testing.T) {
	// The dependency prepends first, the dependent second; the dependent's
	// value must end up frontmost.
	dep := newModule(t, "dep", "1.0.0", envmod.Environment{"PATH": prependOps("/a")})
	app := newModule(t, "app", "1.0.0", envmod.Environment{"PATH": prependOps("/b")})

	env := NewMapEnviron(map[string]string{"PATH": "/usr/bin"})
	a := NewActivator(env, nil)
	mods, err := a.Activate(context.Background(), []envmod.Reference{dep, app})
	if err != nil {
		t.Fatalf("Activate error = %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("Activate returned %d modules, want 2", len(mods))
	}

	want := "/b" + sep + "/a" + sep + "/usr/bin"
	if got, _ := env.Get("PATH"); got != want {
		t.Errorf("PATH = %q, want %q", got, want)
	}
}

func TestActivateMergeOperations(t *testing.T) {
	ref := newModule(t, "tool", "1.0.0", envmod.Environment{
		"TOOL_ROOT": {{Kind: envmod.EnvSet, Value: "/opt/tool"}},
		"PATH":      {{Kind: envmod.EnvAppend, Value: "/opt/tool/bin"}},
		"FLAGS":     {{Kind: envmod.EnvPrepend, Value: "-fast", Separator: " "}},
	})

	env := NewMapEnviron(map[string]string{
		"TOOL_ROOT": "/stale",
		"PATH":      "/usr/bin",
		"FLAGS":     "-v",
	})
	if _, err := NewActivator(env, nil).Activate(context.Background(), []envmod.Reference{ref}); err != nil {
		t.Fatalf("Activate error = %v", err)
	}

	tests := []struct {
		key, want string
	}{
		{"TOOL_ROOT", "/opt/tool"},
		{"PATH", "/usr/bin" + sep + "/opt/tool/bin"},
		{"FLAGS", "-fast -v"},
	}
	for _, tt := range tests {
		if got, _ := env.Get(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestActivateIdempotent(t *testing.T) {
	ref := newModule(t, "maya", "2024.1", envmod.Environment{"PATH": prependOps("/maya/bin")})

	env := NewMapEnviron(map[string]string{"PATH": "/usr/bin"})
	a := NewActivator(env, nil)
	for range 2 {
		if _, err := a.Activate(context.Background(), []envmod.Reference{ref}); err != nil {
			t.Fatalf("Activate error = %v", err)
		}
	}

	if got := a.Active().Names(); len(got) != 1 || got[0] != "maya-2024.1" {
		t.Errorf("active set = %v, want exactly one maya-2024.1", got)
	}
	if got, _ := env.Get(ActiveModulesVar); got != "maya-2024.1" {
		t.Errorf("%s = %q, want single entry", ActiveModulesVar, got)
	}
	if got, _ := env.Get("PATH"); got != "/maya/bin"+sep+"/usr/bin" {
		t.Errorf("PATH = %q, re-activation must not merge deltas twice", got)
	}
}

func TestActivateRequiresMaterialization(t *testing.T) {
	spec := &envmod.ModuleSpec{Name: "maya", Version: envmod.ParseVersion("2024.1")}
	env := NewMapEnviron(nil)
	a := NewActivator(env, nil)

	_, err := a.Activate(context.Background(), []envmod.Reference{envmod.Unmaterialized(spec)})
	var notMat *NotMaterializedError
	if !errors.As(err, &notMat) || notMat.Spec != "maya-2024.1" {
		t.Fatalf("Activate error = %v, want NotMaterializedError for maya-2024.1", err)
	}
	if a.Active().Len() != 0 {
		t.Error("failed precondition must not register anything")
	}
}

func TestActivatePreHookFailureAbortsBatch(t *testing.T) {
	good := newModule(t, "good", "1.0.0", nil)
	bad := newModule(t, "bad", "1.0.0", envmod.Environment{"BAD": {{Kind: envmod.EnvSet, Value: "1"}}})
	never := newModule(t, "never", "1.0.0", nil)
	writeHook(t, bad, hook.PreActivate, "exit 7")

	env := NewMapEnviron(nil)
	a := NewActivator(env, nil)
	activated, err := a.Activate(context.Background(), []envmod.Reference{good, bad, never})

	var hookErr *hook.HookError
	if !errors.As(err, &hookErr) || hookErr.ExitCode != 7 {
		t.Fatalf("Activate error = %v, want HookError exit 7", err)
	}
	// No rollback: the module before the failure stays active.
	if len(activated) != 1 || activated[0].RealName() != "good-1.0.0" {
		t.Errorf("activated = %v, want [good-1.0.0]", activated)
	}
	if a.Active().Contains("bad-1.0.0") || a.Active().Contains("never-1.0.0") {
		t.Errorf("failed and unreached modules must not register, active = %v", a.Active().Names())
	}
	if _, ok := env.Get("BAD"); ok {
		t.Error("failed module's environment deltas must not apply")
	}
}

func TestActivatePostHookFailureIsNotFatal(t *testing.T) {
	ref := newModule(t, "maya", "2024.1", nil)
	writeHook(t, ref, hook.PostActivate, "exit 1")

	a := NewActivator(NewMapEnviron(nil), nil)
	activated, err := a.Activate(context.Background(), []envmod.Reference{ref})
	if err != nil {
		t.Fatalf("Activate error = %v, post_activate failures are logged only", err)
	}
	if len(activated) != 1 || !a.Active().Contains("maya-2024.1") {
		t.Error("module must stay activated despite post_activate failure")
	}
}

func TestDeactivate(t *testing.T) {
	maya := newModule(t, "maya", "2024.1", nil)
	arnold := newModule(t, "arnold", "5.0.0", nil)

	env := NewMapEnviron(nil)
	a := NewActivator(env, nil)
	if _, err := a.Activate(context.Background(), []envmod.Reference{maya, arnold}); err != nil {
		t.Fatalf("Activate error = %v", err)
	}

	if err := a.Deactivate([]string{"maya-2024.1"}); err != nil {
		t.Fatalf("Deactivate error = %v", err)
	}
	if a.Active().Contains("maya-2024.1") || !a.Active().Contains("arnold-5.0.0") {
		t.Errorf("active after deactivate = %v, want only arnold-5.0.0", a.Active().Names())
	}
	if got, _ := env.Get(ActiveModulesVar); got != "arnold-5.0.0" {
		t.Errorf("%s = %q, want arnold-5.0.0", ActiveModulesVar, got)
	}
}
