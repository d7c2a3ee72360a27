// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/envmod/envmod/pkg/envmod"
)

// writeModuleDir creates a module fixture under parent and returns its path.
func writeModuleDir(t *testing.T, parent, name, version string, requires []string) string {
	t.Helper()
	dir := filepath.Join(parent, name+"-"+version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	meta := &envmod.Metadata{Name: name, Version: version, Requires: requires}
	if err := envmod.WriteMetadata(dir, meta); err != nil {
		t.Fatal(err)
	}
	return dir
}

func mustParseReq(t *testing.T, s string) envmod.Requirement {
	t.Helper()
	req, err := envmod.ParseRequirement(s)
	if err != nil {
		t.Fatalf("ParseRequirement(%q) error = %v", s, err)
	}
	return req
}

func TestLocalRepoList(t *testing.T) {
	root := t.TempDir()
	writeModuleDir(t, root, "maya", "2024.1", nil)
	writeModuleDir(t, root, "arnold", "5.0.0", nil)

	// Malformed metadata is skipped, not fatal.
	bad := filepath.Join(root, "broken-1.0.0")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, envmod.MetadataFileName), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewLocalRepo("test", root)
	specs, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("List returned %d specs, want 2", len(specs))
	}
	for _, spec := range specs {
		if spec.Repo != r {
			t.Errorf("spec %s has wrong owning repo", spec.RealName())
		}
	}
}

func TestLocalRepoListMissingRoot(t *testing.T) {
	r := NewLocalRepo("test", filepath.Join(t.TempDir(), "nope"))
	specs, err := r.List(context.Background())
	if err != nil || len(specs) != 0 {
		t.Errorf("List over missing root = (%v, %v), want empty", specs, err)
	}
}

func TestLocalRepoFindSortsVersionsDescending(t *testing.T) {
	root := t.TempDir()
	writeModuleDir(t, root, "maya", "1.0.0", nil)
	writeModuleDir(t, root, "maya", "2.0.0", nil)
	writeModuleDir(t, root, "maya", "1.5.0", nil)

	r := NewLocalRepo("test", root)
	specs, err := r.Find(context.Background(), mustParseReq(t, "maya"))
	if err != nil {
		t.Fatalf("Find error = %v", err)
	}
	got := make([]string, len(specs))
	for i, spec := range specs {
		got[i] = spec.Version.Raw
	}
	want := []string{"2.0.0", "1.5.0", "1.0.0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Find order = %v, want %v", got, want)
		}
	}
}

func TestLocalRepoFindConstraint(t *testing.T) {
	root := t.TempDir()
	writeModuleDir(t, root, "maya", "1.0.0", nil)
	writeModuleDir(t, root, "maya", "2.0.0", nil)

	r := NewLocalRepo("test", root)

	specs, err := r.Find(context.Background(), mustParseReq(t, "maya==1.0.0"))
	if err != nil {
		t.Fatalf("Find error = %v", err)
	}
	if len(specs) != 1 || specs[0].Version.Raw != "1.0.0" {
		t.Errorf("Find maya==1.0.0 = %v, want exactly 1.0.0", specs)
	}

	specs, err = r.Find(context.Background(), mustParseReq(t, "maya-2.0.0"))
	if err != nil {
		t.Fatalf("Find error = %v", err)
	}
	if len(specs) != 1 || specs[0].Version.Raw != "2.0.0" {
		t.Errorf("Find by real_name = %v, want exactly 2.0.0", specs)
	}
}

func TestLocalRepoDownloadOverwriteContract(t *testing.T) {
	root := t.TempDir()
	writeModuleDir(t, root, "maya", "1.0.0", nil)
	r := NewLocalRepo("test", root)

	specs, err := r.Find(context.Background(), mustParseReq(t, "maya"))
	if err != nil || len(specs) == 0 {
		t.Fatalf("Find = (%v, %v)", specs, err)
	}
	spec := specs[0]

	dest := filepath.Join(t.TempDir(), "maya-1.0.0")
	if _, err := r.Download(context.Background(), spec, dest, false); err != nil {
		t.Fatalf("Download error = %v", err)
	}

	// Mark the destination so we can prove refusal leaves it untouched.
	marker := filepath.Join(dest, "marker.txt")
	if err := os.WriteFile(marker, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = r.Download(context.Background(), spec, dest, false)
	if !errors.Is(err, envmod.ErrModuleExists) {
		t.Fatalf("Download without overwrite error = %v, want ErrModuleExists", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("refused download should leave destination untouched: %v", err)
	}

	if _, err := r.Download(context.Background(), spec, dest, true); err != nil {
		t.Fatalf("Download with overwrite error = %v", err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("overwrite should fully replace destination content")
	}
}

func TestLocalRepoUploadRoundTrip(t *testing.T) {
	src := writeModuleDir(t, t.TempDir(), "maya", "2024.1", nil)
	mod, err := envmod.LoadModule(src)
	if err != nil {
		t.Fatalf("LoadModule error = %v", err)
	}

	r := NewLocalRepo("home", t.TempDir())
	spec, err := r.Upload(context.Background(), mod, false)
	if err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if spec.RealName() != "maya-2024.1" {
		t.Errorf("uploaded spec = %s, want maya-2024.1", spec.RealName())
	}

	found, err := r.Find(context.Background(), mustParseReq(t, "maya"))
	if err != nil || len(found) != 1 {
		t.Fatalf("Find after upload = (%v, %v), want one spec", found, err)
	}

	// Metadata must survive the round trip byte-identically.
	srcData, err := os.ReadFile(filepath.Join(src, envmod.MetadataFileName))
	if err != nil {
		t.Fatal(err)
	}
	dstData, err := os.ReadFile(filepath.Join(found[0].Locator, envmod.MetadataFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(srcData) != string(dstData) {
		t.Error("uploaded metadata differs from source")
	}

	if _, err := r.Upload(context.Background(), mod, false); !errors.Is(err, envmod.ErrModuleExists) {
		t.Errorf("re-upload without overwrite error = %v, want ErrModuleExists", err)
	}
}

func TestLocalRepoRemove(t *testing.T) {
	root := t.TempDir()
	writeModuleDir(t, root, "maya", "1.0.0", nil)
	r := NewLocalRepo("test", root)

	specs, err := r.Find(context.Background(), mustParseReq(t, "maya"))
	if err != nil || len(specs) != 1 {
		t.Fatalf("Find = (%v, %v)", specs, err)
	}

	if err := r.Remove(context.Background(), specs[0]); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if _, err := os.Stat(specs[0].Locator); !os.IsNotExist(err) {
		t.Error("Remove should delete module storage")
	}

	if err := r.Remove(context.Background(), specs[0]); !errors.Is(err, envmod.ErrModuleNotFound) {
		t.Errorf("second Remove error = %v, want ErrModuleNotFound", err)
	}
}
