// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

type (
	// Version is a module version string with a documented total order:
	// versions that parse as semantic versions compare semantically, and a
	// semantic version always orders above one that does not parse. Two
	// non-semantic versions fall back to plain string comparison.
	Version struct {
		// Raw is the version string exactly as declared in module.yml.
		Raw string

		sv *goversion.Version
	}
)

// ParseVersion parses a version string. It never fails: strings that are not
// semantic versions are kept verbatim and ordered by the string fallback.
func ParseVersion(s string) Version {
	s = strings.TrimSpace(s)
	v := Version{Raw: s}
	if sv, err := goversion.NewVersion(s); err == nil {
		v.sv = sv
	}
	return v
}

// IsSemVer reports whether the version parsed as a semantic version.
func (v Version) IsSemVer() bool { return v.sv != nil }

// String returns the raw version string.
func (v Version) String() string { return v.Raw }

// Compare returns -1, 0 or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	switch {
	case v.sv != nil && o.sv != nil:
		return v.sv.Compare(o.sv)
	case v.sv != nil:
		return 1
	case o.sv != nil:
		return -1
	default:
		return strings.Compare(v.Raw, o.Raw)
	}
}

// Equal reports whether two versions occupy the same position in the order.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }
