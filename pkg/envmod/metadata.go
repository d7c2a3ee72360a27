// SPDX-License-Identifier: MPL-2.0

package envmod

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// MetadataFileName is the metadata document stored at every module root.
	MetadataFileName = "module.yml"

	// HooksDirName is the subdirectory holding lifecycle hook scripts.
	HooksDirName = "hooks"
)

const (
	// EnvSet replaces the accumulated value unconditionally.
	EnvSet EnvOpKind = "set"
	// EnvPrepend joins the new value in front of the accumulated value.
	EnvPrepend EnvOpKind = "prepend"
	// EnvAppend joins the new value behind the accumulated value.
	EnvAppend EnvOpKind = "append"
)

// metadataHeader is written at the top of every generated module.yml.
const metadataHeader = `# envmod module metadata
# Documentation on the environment section:
#   VAR: value            set VAR
#   VAR: [a, b]           prepend a, b to VAR (a ends up frontmost)
#   VAR: {append: value}  append value to VAR
`

// ErrInvalidMetadata is the sentinel error wrapped by ConfigError.
var ErrInvalidMetadata = errors.New("invalid module metadata")

type (
	// EnvOpKind identifies one of the three environment delta operations.
	EnvOpKind string

	// EnvOp is a single declared operation against one environment variable.
	EnvOp struct {
		Kind  EnvOpKind
		Value string
		// Separator joins prepend/append values; empty means the platform
		// path list separator.
		Separator string
	}

	// EnvOps is the ordered operation list declared for one variable. Three
	// YAML shapes are accepted:
	//
	//	VAR: value                  -> one set op
	//	VAR: [a, b]                 -> prepend ops; the first listed value
	//	                               ends up frontmost after the merge
	//	VAR: {prepend: a, separator: ";"}
	EnvOps []EnvOp

	// Environment maps variable names to their declared operation lists.
	Environment map[string]EnvOps

	// Metadata is the parsed module.yml document.
	Metadata struct {
		Name        string      `yaml:"name"`
		Version     string      `yaml:"version"`
		Description string      `yaml:"description"`
		Author      string      `yaml:"author"`
		Email       string      `yaml:"email"`
		Requires    []string    `yaml:"requires"`
		Environment Environment `yaml:"environment"`
	}

	// ConfigError reports a malformed or incomplete metadata document.
	ConfigError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid module metadata %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause chained onto ErrInvalidMetadata.
func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports ErrInvalidMetadata for errors.Is without losing the cause.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidMetadata }

// UnmarshalYAML accepts the scalar, sequence and mapping shapes for a
// variable's operation list.
func (ops *EnvOps) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*ops = EnvOps{{Kind: EnvSet, Value: v}}
		return nil

	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		// Prepend in reverse so the first listed value ends up frontmost.
		out := make(EnvOps, 0, len(values))
		for i := len(values) - 1; i >= 0; i-- {
			out = append(out, EnvOp{Kind: EnvPrepend, Value: values[i]})
		}
		*ops = out
		return nil

	case yaml.MappingNode:
		return ops.unmarshalMapping(node)

	default:
		return fmt.Errorf("line %d: unsupported environment value", node.Line)
	}
}

// unmarshalMapping decodes the explicit {set|prepend|append, separator} form,
// preserving document order of the operation keys.
func (ops *EnvOps) unmarshalMapping(node *yaml.Node) error {
	separator := ""
	var out EnvOps
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "separator":
			if err := valNode.Decode(&separator); err != nil {
				return err
			}
		case string(EnvSet), string(EnvPrepend), string(EnvAppend):
			kind := EnvOpKind(keyNode.Value)
			switch valNode.Kind {
			case yaml.ScalarNode:
				var v string
				if err := valNode.Decode(&v); err != nil {
					return err
				}
				out = append(out, EnvOp{Kind: kind, Value: v})
			case yaml.SequenceNode:
				var values []string
				if err := valNode.Decode(&values); err != nil {
					return err
				}
				if kind == EnvPrepend {
					for i := len(values) - 1; i >= 0; i-- {
						out = append(out, EnvOp{Kind: kind, Value: values[i]})
					}
				} else {
					for _, v := range values {
						out = append(out, EnvOp{Kind: kind, Value: v})
					}
				}
			default:
				return fmt.Errorf("line %d: %s value must be a string or list", valNode.Line, kind)
			}
		default:
			return fmt.Errorf("line %d: unknown environment operation %q", keyNode.Line, keyNode.Value)
		}
	}
	for i := range out {
		out[i].Separator = separator
	}
	*ops = out
	return nil
}

// MarshalYAML emits the compact scalar form for a single set op and the
// explicit mapping form otherwise.
func (ops EnvOps) MarshalYAML() (any, error) {
	if len(ops) == 1 && ops[0].Kind == EnvSet && ops[0].Separator == "" {
		return ops[0].Value, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair := func(key, value string) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value},
		)
	}
	for _, op := range ops {
		appendPair(string(op.Kind), op.Value)
	}
	if len(ops) > 0 && ops[0].Separator != "" {
		appendPair("separator", ops[0].Separator)
	}
	return node, nil
}

// Validate checks the fields every metadata document must carry.
func (m *Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("missing name")
	}
	if strings.TrimSpace(m.Version) == "" {
		return errors.New("missing version")
	}
	return nil
}

// Requirements parses the declared requires list.
func (m *Metadata) Requirements() ([]Requirement, error) {
	return ParseRequirements(m.Requires)
}

// ReadMetadata loads and validates the module.yml under a module root.
func ReadMetadata(moduleRoot string) (*Metadata, error) {
	path := filepath.Join(moduleRoot, MetadataFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if err := meta.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &meta, nil
}

// WriteMetadata serializes metadata to module.yml under a module root,
// prefixed with the standard header comment.
func WriteMetadata(moduleRoot string, meta *Metadata) error {
	if err := meta.Validate(); err != nil {
		return &ConfigError{Path: filepath.Join(moduleRoot, MetadataFileName), Err: err}
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return &ConfigError{Path: filepath.Join(moduleRoot, MetadataFileName), Err: err}
	}
	out := append([]byte(metadataHeader), data...)
	return os.WriteFile(filepath.Join(moduleRoot, MetadataFileName), out, 0o644)
}
