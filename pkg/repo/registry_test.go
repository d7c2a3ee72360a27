// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"errors"
	"testing"
)

func TestRegistryOrderAndUniqueness(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(NewLocalRepo("home", t.TempDir())); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := reg.Add(NewLocalRepo("user", t.TempDir())); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	if err := reg.Add(NewLocalRepo("home", t.TempDir())); !errors.Is(err, ErrDuplicateRepo) {
		t.Errorf("duplicate Add error = %v, want ErrDuplicateRepo", err)
	}

	if err := reg.Insert(0, NewLocalRepo("cwd", t.TempDir())); err != nil {
		t.Fatalf("Insert error = %v", err)
	}

	var names []string
	for _, r := range reg.Repos() {
		names = append(names, r.Name())
	}
	want := []string{"cwd", "home", "user"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestRegistryRemoveAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(NewLocalRepo("home", t.TempDir())); err != nil {
		t.Fatal(err)
	}

	if _, ok := reg.Get("home"); !ok {
		t.Error("Get(home) should find the repo")
	}
	if !reg.Remove("home") {
		t.Error("Remove(home) should report removal")
	}
	if reg.Remove("home") {
		t.Error("second Remove(home) should report nothing removed")
	}
	if _, ok := reg.Get("home"); ok {
		t.Error("Get after Remove should miss")
	}
}
