// SPDX-License-Identifier: MPL-2.0

// Package activate merges module environment deltas into the process
// environment, runs activation lifecycle hooks and maintains the
// active-module registry.
package activate

import (
	"os"
	"sort"
)

type (
	// Environ abstracts the mutable process environment so activation can be
	// tested against an in-memory map and composed environments can be built
	// without touching the real process.
	Environ interface {
		// Get returns the value of a variable and whether it is set.
		Get(key string) (string, bool)
		// Set assigns a variable.
		Set(key, value string) error
		// Environ returns a "KEY=value" snapshot in sorted key order.
		Environ() []string
	}

	// OSEnviron is the real process environment.
	OSEnviron struct{}

	// MapEnviron is an in-memory environment.
	MapEnviron map[string]string
)

// Get looks up a process environment variable.
func (OSEnviron) Get(key string) (string, bool) { return os.LookupEnv(key) }

// Set assigns a process environment variable.
func (OSEnviron) Set(key, value string) error { return os.Setenv(key, value) }

// Environ snapshots the process environment.
func (OSEnviron) Environ() []string { return os.Environ() }

// NewMapEnviron copies seed into a fresh in-memory environment.
func NewMapEnviron(seed map[string]string) MapEnviron {
	env := make(MapEnviron, len(seed))
	for k, v := range seed {
		env[k] = v
	}
	return env
}

// Get looks up a variable.
func (m MapEnviron) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set assigns a variable.
func (m MapEnviron) Set(key, value string) error {
	m[key] = value
	return nil
}

// Environ returns a "KEY=value" snapshot in sorted key order.
func (m MapEnviron) Environ() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
