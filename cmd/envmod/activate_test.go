// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/envmod/envmod/internal/shell"
)

func TestActivateVirtualFlagRegistered(t *testing.T) {
	if activateCmd.Flags().Lookup("virtual") == nil {
		t.Fatal("activate should expose a --virtual flag")
	}
}

func TestExecCommandVirtualUsesEmbeddedInterpreter(t *testing.T) {
	// The embedded interpreter needs no system shell, so this runs on any
	// host. The variable comes from the composed env, not the process env.
	out := filepath.Join(t.TempDir(), "out")
	env := append(os.Environ(), "ENVMOD_TEST_VALUE=composed")

	code, err := execCommand(context.Background(), "echo $ENVMOD_TEST_VALUE > "+out, true, env, shell.StdIO())
	if err != nil || code != 0 {
		t.Fatalf("execCommand virtual = (%d, %v)", code, err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "composed" {
		t.Errorf("virtual command saw %q, want the composed variable", got)
	}

	code, err = execCommand(context.Background(), "exit 6", true, env, shell.StdIO())
	if err != nil {
		t.Fatalf("execCommand error = %v", err)
	}
	if code != 6 {
		t.Errorf("virtual exit code = %d, want 6", code)
	}
}
