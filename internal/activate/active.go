// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"os"
	"slices"
	"sort"
	"strings"
)

// ActiveModulesVar is the environment variable holding the serialized
// active-module registry so descendant processes can discover it.
const ActiveModulesVar = "ENVMOD_ACTIVE_MODULES"

// ActiveSet is the ordered, duplicate-free registry of active module
// real_names. It is the canonical in-memory form; the environment variable
// is only the process-boundary serialization.
type ActiveSet struct {
	order []string
}

// ParseActiveSet restores a registry from its serialized form, dropping
// duplicates while keeping first-seen order.
func ParseActiveSet(serialized string) *ActiveSet {
	s := &ActiveSet{}
	for _, name := range strings.Split(serialized, string(os.PathListSeparator)) {
		if name = strings.TrimSpace(name); name != "" {
			s.Add(name)
		}
	}
	return s
}

// Add registers a real_name. Re-adding keeps the original position, so
// activation stays idempotent.
func (s *ActiveSet) Add(realName string) {
	if !s.Contains(realName) {
		s.order = append(s.order, realName)
	}
}

// Remove unregisters a real_name.
func (s *ActiveSet) Remove(realName string) bool {
	for i, name := range s.order {
		if name == realName {
			s.order = slices.Delete(s.order, i, i+1)
			return true
		}
	}
	return false
}

// Contains reports whether a real_name is active.
func (s *ActiveSet) Contains(realName string) bool {
	return slices.Contains(s.order, realName)
}

// Names returns the active real_names in activation order.
func (s *ActiveSet) Names() []string {
	return slices.Clone(s.order)
}

// Len returns the number of active modules.
func (s *ActiveSet) Len() int { return len(s.order) }

// Serialized renders the registry for the environment contract: real_names
// sorted and joined by the platform path list separator.
func (s *ActiveSet) Serialized() string {
	names := s.Names()
	sort.Strings(names)
	return strings.Join(names, string(os.PathListSeparator))
}
