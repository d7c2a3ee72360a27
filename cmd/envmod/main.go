// SPDX-License-Identifier: MPL-2.0

// Command envmod manages versioned environment modules: resolving
// requirements, localizing modules and activating their environments.
package main

func main() {
	Execute()
}
