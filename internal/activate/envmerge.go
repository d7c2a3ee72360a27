// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"os"
	"sort"

	"github.com/envmod/envmod/pkg/envmod"
)

// mergeModule computes the environment changes one module's declared deltas
// produce against the current environment. Variables are processed in sorted
// name order; operations within a variable keep declaration order. Because
// callers apply each module's changes before merging the next, a dependent
// module's prepend lands in front of its dependencies' values.
func mergeModule(env Environ, meta *envmod.Metadata) map[string]string {
	if len(meta.Environment) == 0 {
		return nil
	}

	names := make([]string, 0, len(meta.Environment))
	for name := range meta.Environment {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := make(map[string]string)
	for _, name := range names {
		value, _ := env.Get(name)
		for _, op := range meta.Environment[name] {
			value = applyOp(value, op)
		}
		changed[name] = value
	}
	return changed
}

// applyOp folds one operation into the accumulated value.
func applyOp(accumulated string, op envmod.EnvOp) string {
	sep := op.Separator
	if sep == "" {
		sep = string(os.PathListSeparator)
	}
	switch op.Kind {
	case envmod.EnvSet:
		return op.Value
	case envmod.EnvPrepend:
		if accumulated == "" {
			return op.Value
		}
		return op.Value + sep + accumulated
	case envmod.EnvAppend:
		if accumulated == "" {
			return op.Value
		}
		return accumulated + sep + op.Value
	default:
		return accumulated
	}
}

// applyChanges writes merged values back in sorted key order for
// deterministic application.
func applyChanges(env Environ, changed map[string]string) error {
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := env.Set(k, changed[k]); err != nil {
			return err
		}
	}
	return nil
}
