// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// OpAny matches every version of the named module.
	OpAny ConstraintOp = ""
	// OpExact matches exactly the constrained version.
	OpExact ConstraintOp = "=="
	// OpNotEqual matches every version except the constrained one.
	OpNotEqual ConstraintOp = "!="
	// OpGreaterEqual matches the constrained version and above.
	OpGreaterEqual ConstraintOp = ">="
	// OpLessEqual matches the constrained version and below.
	OpLessEqual ConstraintOp = "<="
	// OpGreater matches versions strictly above the constrained one.
	OpGreater ConstraintOp = ">"
	// OpLess matches versions strictly below the constrained one.
	OpLess ConstraintOp = "<"
)

// ErrInvalidRequirement is the sentinel error wrapped by InvalidRequirementError.
var ErrInvalidRequirement = errors.New("invalid requirement")

type (
	// ConstraintOp is a version constraint operator in a requirement string.
	ConstraintOp string

	// Requirement is a parsed module requirement: a module name plus an
	// optional version constraint. A bare name with no operator also matches
	// a spec whose real_name ("name-version") equals the requirement name,
	// which is how entries restored from the active-modules variable resolve.
	Requirement struct {
		// Name is the module name (or a real_name for exact lookups).
		Name string
		// Op is the constraint operator; OpAny when unconstrained.
		Op ConstraintOp
		// Version is the constraint operand; zero value when unconstrained.
		Version Version
		// Raw is the requirement string as written.
		Raw string
	}

	// InvalidRequirementError is returned when a requirement string cannot
	// be parsed.
	InvalidRequirementError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRequirement so callers can use errors.Is.
func (e *InvalidRequirementError) Unwrap() error { return ErrInvalidRequirement }

// constraintOps is ordered so two-character operators are tried before their
// one-character prefixes.
var constraintOps = []ConstraintOp{OpExact, OpNotEqual, OpGreaterEqual, OpLessEqual, OpGreater, OpLess}

// ParseRequirement parses a requirement string such as "maya", "maya==2024.1"
// or "arnold>=5.0.0".
func ParseRequirement(s string) (Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Requirement{}, &InvalidRequirementError{Value: s, Reason: "empty"}
	}

	for _, op := range constraintOps {
		idx := strings.Index(raw, string(op))
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(raw[:idx])
		operand := strings.TrimSpace(raw[idx+len(op):])
		if name == "" {
			return Requirement{}, &InvalidRequirementError{Value: s, Reason: "missing module name"}
		}
		if operand == "" {
			return Requirement{}, &InvalidRequirementError{Value: s, Reason: "missing version after " + string(op)}
		}
		return Requirement{Name: name, Op: op, Version: ParseVersion(operand), Raw: raw}, nil
	}

	return Requirement{Name: raw, Op: OpAny, Raw: raw}, nil
}

// ParseRequirements parses a list of requirement strings, failing on the
// first invalid entry.
func ParseRequirements(in []string) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(in))
	for _, s := range in {
		req, err := ParseRequirement(s)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// String returns the requirement as written.
func (r Requirement) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	if r.Op == OpAny {
		return r.Name
	}
	return r.Name + string(r.Op) + r.Version.Raw
}

// Constrained reports whether the requirement carries a version constraint.
func (r Requirement) Constrained() bool { return r.Op != OpAny }

// Satisfies reports whether version v satisfies the constraint.
func (r Requirement) Satisfies(v Version) bool {
	if r.Op == OpAny {
		return true
	}
	cmp := v.Compare(r.Version)
	switch r.Op {
	case OpExact:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	default:
		return false
	}
}

// Matches reports whether the spec is named by this requirement and its
// version satisfies the constraint.
func (r Requirement) Matches(spec *ModuleSpec) bool {
	if spec == nil {
		return false
	}
	if r.Op == OpAny && r.Name == spec.RealName() {
		return true
	}
	return r.Name == spec.Name && r.Satisfies(spec.Version)
}
