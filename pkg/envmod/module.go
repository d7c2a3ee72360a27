// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

type (
	// ModuleSpec is a discoverable, not-yet-materialized module description
	// produced by a repository's List or Find. It never owns storage; the
	// locator is only meaningful to the owning repository.
	ModuleSpec struct {
		// Name is the module name from its metadata.
		Name string
		// Version is the parsed module version.
		Version Version
		// Locator is the repository-relative locator for the module
		// (an absolute directory for local repositories, an archive key
		// for remote ones).
		Locator string
		// Repo is the owning repository (non-owning back-reference).
		Repo Repo
		// Metadata is the parsed metadata document from the listing.
		Metadata *Metadata
	}

	// Module is a module materialized on local storage.
	Module struct {
		// Path is the module root directory.
		Path string
		// Metadata is the parsed module.yml.
		Metadata *Metadata
	}

	// Reference is the tagged materialized/unmaterialized module variant.
	// Holding a Reference instead of a bare spec prevents accidental
	// filesystem operations on modules that only exist remotely.
	Reference struct {
		spec   *ModuleSpec
		module *Module
	}
)

// RealName returns the "name-version" key used for display, activation and
// repository storage.
func (s *ModuleSpec) RealName() string {
	return s.Name + "-" + s.Version.Raw
}

// String returns the spec's real_name.
func (s *ModuleSpec) String() string { return s.RealName() }

// Requirements parses the spec's declared requires list. A spec listed
// without metadata has no visible dependencies.
func (s *ModuleSpec) Requirements() ([]Requirement, error) {
	if s.Metadata == nil {
		return nil, nil
	}
	return s.Metadata.Requirements()
}

// LoadModule loads a materialized module from its root directory.
func LoadModule(path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadata(abs)
	if err != nil {
		return nil, err
	}
	return &Module{Path: abs, Metadata: meta}, nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.Metadata.Name }

// Version returns the parsed module version.
func (m *Module) Version() Version { return ParseVersion(m.Metadata.Version) }

// RealName returns the module's "name-version" key.
func (m *Module) RealName() string {
	return m.Metadata.Name + "-" + m.Metadata.Version
}

// HooksDir returns the module's hook script directory. The directory may not
// exist; hook execution treats a missing directory as "no hooks".
func (m *Module) HooksDir() string {
	return filepath.Join(m.Path, HooksDirName)
}

// Requirements parses the module's declared requires list.
func (m *Module) Requirements() ([]Requirement, error) {
	return m.Metadata.Requirements()
}

// Spec returns a spec view of the module bound to the given owning repository.
func (m *Module) Spec(repo Repo) *ModuleSpec {
	return &ModuleSpec{
		Name:     m.Metadata.Name,
		Version:  m.Version(),
		Locator:  m.Path,
		Repo:     repo,
		Metadata: m.Metadata,
	}
}

// Remove deletes the module's storage.
func (m *Module) Remove() error {
	if m.Path == "" || m.Path == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove %q", m.Path)
	}
	return os.RemoveAll(m.Path)
}

// Unmaterialized wraps a spec that has no local storage yet.
func Unmaterialized(spec *ModuleSpec) Reference {
	return Reference{spec: spec}
}

// Materialized wraps a spec together with its local module.
func Materialized(spec *ModuleSpec, module *Module) Reference {
	return Reference{spec: spec, module: module}
}

// Spec returns the underlying spec.
func (r Reference) Spec() *ModuleSpec { return r.spec }

// Module returns the materialized module and whether one is present.
func (r Reference) Module() (*Module, bool) { return r.module, r.module != nil }

// ParseModulePath infers a module name and version from a directory path,
// splitting the base name at the last dash followed by a version-looking
// suffix ("maya-2024.1" -> "maya", "2024.1"). A base name without such a
// suffix yields the whole name and version "0.1.0".
func ParseModulePath(path string) (name, version string) {
	base := filepath.Base(filepath.Clean(path))
	for idx := strings.LastIndex(base, "-"); idx > 0; idx = strings.LastIndex(base[:idx], "-") {
		suffix := base[idx+1:]
		if looksLikeVersion(suffix) {
			return base[:idx], suffix
		}
	}
	return base, "0.1.0"
}

// looksLikeVersion reports whether s starts with a digit, optionally behind
// a "v" prefix.
func looksLikeVersion(s string) bool {
	s = strings.TrimPrefix(s, "v")
	return s != "" && unicode.IsDigit(rune(s[0]))
}

// SortSpecs orders specs by (real_name, version) for stable display.
func SortSpecs(specs []*ModuleSpec) {
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].RealName() != specs[j].RealName() {
			return specs[i].RealName() < specs[j].RealName()
		}
		return specs[i].Version.Compare(specs[j].Version) < 0
	})
}
