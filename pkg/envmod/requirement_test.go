// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"errors"
	"testing"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantName    string
		wantOp      ConstraintOp
		wantVersion string
	}{
		{name: "bare name", in: "maya", wantName: "maya", wantOp: OpAny},
		{name: "exact", in: "maya==2024.1", wantName: "maya", wantOp: OpExact, wantVersion: "2024.1"},
		{name: "greater equal", in: "arnold>=5.0.0", wantName: "arnold", wantOp: OpGreaterEqual, wantVersion: "5.0.0"},
		{name: "less equal", in: "arnold<=5.0.0", wantName: "arnold", wantOp: OpLessEqual, wantVersion: "5.0.0"},
		{name: "greater", in: "arnold>4.0.0", wantName: "arnold", wantOp: OpGreater, wantVersion: "4.0.0"},
		{name: "less", in: "arnold<6.0.0", wantName: "arnold", wantOp: OpLess, wantVersion: "6.0.0"},
		{name: "not equal", in: "arnold!=5.1.0", wantName: "arnold", wantOp: OpNotEqual, wantVersion: "5.1.0"},
		{name: "spaces around operator", in: "maya == 2024.1", wantName: "maya", wantOp: OpExact, wantVersion: "2024.1"},
		{name: "real_name form stays whole", in: "maya-2024.1", wantName: "maya-2024.1", wantOp: OpAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.in)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error = %v", tt.in, err)
			}
			if req.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", req.Name, tt.wantName)
			}
			if req.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", req.Op, tt.wantOp)
			}
			if req.Version.Raw != tt.wantVersion {
				t.Errorf("Version = %q, want %q", req.Version.Raw, tt.wantVersion)
			}
		})
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "==1.0.0", "maya=="} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRequirement(in)
			if !errors.Is(err, ErrInvalidRequirement) {
				t.Errorf("ParseRequirement(%q) error = %v, want ErrInvalidRequirement", in, err)
			}
		})
	}
}

func TestRequirementSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		req      string
		version  string
		expected bool
	}{
		{name: "any matches everything", req: "maya", version: "0.0.1", expected: true},
		{name: "exact match", req: "maya==1.0.0", version: "1.0.0", expected: true},
		{name: "exact mismatch", req: "maya==1.0.0", version: "1.0.1", expected: false},
		{name: "gte above", req: "maya>=1.0.0", version: "2.0.0", expected: true},
		{name: "gte equal", req: "maya>=1.0.0", version: "1.0.0", expected: true},
		{name: "gte below", req: "maya>=1.0.0", version: "0.9.0", expected: false},
		{name: "lt boundary", req: "maya<2.0.0", version: "2.0.0", expected: false},
		{name: "ne excludes", req: "maya!=1.0.0", version: "1.0.0", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.req)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error = %v", tt.req, err)
			}
			if got := req.Satisfies(ParseVersion(tt.version)); got != tt.expected {
				t.Errorf("%q.Satisfies(%q) = %v, want %v", tt.req, tt.version, got, tt.expected)
			}
		})
	}
}

func TestRequirementMatchesRealName(t *testing.T) {
	spec := &ModuleSpec{Name: "maya", Version: ParseVersion("2024.1")}

	req, err := ParseRequirement("maya-2024.1")
	if err != nil {
		t.Fatalf("ParseRequirement error = %v", err)
	}
	if !req.Matches(spec) {
		t.Errorf("real_name requirement should match spec %s", spec.RealName())
	}

	other, err := ParseRequirement("maya-2023.0")
	if err != nil {
		t.Fatalf("ParseRequirement error = %v", err)
	}
	if other.Matches(spec) {
		t.Errorf("real_name requirement %q should not match spec %s", other.Name, spec.RealName())
	}
}
