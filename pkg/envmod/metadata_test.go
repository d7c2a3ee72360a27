// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEnvOpsUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name     string
		yamlDoc  string
		variable string
		expected EnvOps
	}{
		{
			name:     "scalar is set",
			yamlDoc:  "environment:\n  STUDIO: /mnt/studio\n",
			variable: "STUDIO",
			expected: EnvOps{{Kind: EnvSet, Value: "/mnt/studio"}},
		},
		{
			name:     "sequence prepends with first value frontmost",
			yamlDoc:  "environment:\n  PATH: [/a, /b]\n",
			variable: "PATH",
			expected: EnvOps{
				{Kind: EnvPrepend, Value: "/b"},
				{Kind: EnvPrepend, Value: "/a"},
			},
		},
		{
			name:     "mapping with append",
			yamlDoc:  "environment:\n  PYTHONPATH: {append: /tools/python}\n",
			variable: "PYTHONPATH",
			expected: EnvOps{{Kind: EnvAppend, Value: "/tools/python"}},
		},
		{
			name:     "mapping with separator",
			yamlDoc:  "environment:\n  FLAGS: {prepend: -O2, separator: \" \"}\n",
			variable: "FLAGS",
			expected: EnvOps{{Kind: EnvPrepend, Value: "-O2", Separator: " "}},
		},
		{
			name:     "mapping preserves op order",
			yamlDoc:  "environment:\n  PATH: {set: /base, append: /extra}\n",
			variable: "PATH",
			expected: EnvOps{
				{Kind: EnvSet, Value: "/base"},
				{Kind: EnvAppend, Value: "/extra"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var meta Metadata
			if err := yaml.Unmarshal([]byte("name: m\nversion: 1.0.0\n"+tt.yamlDoc), &meta); err != nil {
				t.Fatalf("yaml.Unmarshal error = %v", err)
			}
			got := meta.Environment[tt.variable]
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ops = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestEnvOpsUnmarshalRejectsUnknownOp(t *testing.T) {
	var meta Metadata
	err := yaml.Unmarshal([]byte("name: m\nversion: 1.0.0\nenvironment:\n  PATH: {replace: /x}\n"), &meta)
	if err == nil {
		t.Fatal("expected error for unknown environment operation")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	meta := &Metadata{
		Name:        "maya",
		Version:     "2024.1",
		Description: "Autodesk Maya environment",
		Author:      "pipeline",
		Email:       "pipeline@example.com",
		Requires:    []string{"python>=3.10"},
		Environment: Environment{
			"MAYA_LOCATION": EnvOps{{Kind: EnvSet, Value: "/opt/maya"}},
			"PATH":          EnvOps{{Kind: EnvPrepend, Value: "/opt/maya/bin"}},
		},
	}

	if err := WriteMetadata(dir, meta); err != nil {
		t.Fatalf("WriteMetadata error = %v", err)
	}

	loaded, err := ReadMetadata(dir)
	if err != nil {
		t.Fatalf("ReadMetadata error = %v", err)
	}
	if loaded.Name != meta.Name || loaded.Version != meta.Version {
		t.Errorf("round trip = %s-%s, want %s-%s", loaded.Name, loaded.Version, meta.Name, meta.Version)
	}
	if !reflect.DeepEqual(loaded.Requires, meta.Requires) {
		t.Errorf("Requires = %v, want %v", loaded.Requires, meta.Requires)
	}
	if !reflect.DeepEqual(loaded.Environment["PATH"], meta.Environment["PATH"]) {
		t.Errorf("PATH ops = %+v, want %+v", loaded.Environment["PATH"], meta.Environment["PATH"])
	}
}

func TestReadMetadataErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadMetadata(t.TempDir())
		if !errors.Is(err, ErrInvalidMetadata) {
			t.Errorf("error = %v, want ErrInvalidMetadata", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, MetadataFileName), []byte("{not yaml"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := ReadMetadata(dir)
		if !errors.Is(err, ErrInvalidMetadata) {
			t.Errorf("error = %v, want ErrInvalidMetadata", err)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, MetadataFileName), []byte("name: m\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := ReadMetadata(dir)
		if !errors.Is(err, ErrInvalidMetadata) {
			t.Errorf("error = %v, want ErrInvalidMetadata", err)
		}
	})
}
