// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active and available modules",
	Long: `List every module visible across the registered repositories, marking
currently active modules with [*]. Repositories that cannot be listed are
reported as warnings, not failures.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	active := a.activator().Active()

	seen := make(map[string]bool)
	for _, r := range a.registry.Repos() {
		specs, err := r.List(cmd.Context())
		if err != nil {
			logx.Warn("cannot list repository", "repo", r.Name(), "err", err)
			continue
		}
		if len(specs) == 0 {
			continue
		}
		envmod.SortSpecs(specs)

		fmt.Println(TitleStyle.Render(r.Name()))
		for _, spec := range specs {
			seen[spec.RealName()] = true
			marker := "[ ]"
			if active.Contains(spec.RealName()) {
				marker = SuccessStyle.Render("[*]")
			}
			fmt.Printf("  %s %s\n", marker, ModuleStyle.Render(spec.RealName()))
		}
	}

	// Active modules no longer visible in any repository.
	for _, name := range active.Names() {
		if !seen[name] {
			fmt.Println(WarningStyle.Render("  [*] " + name + " (active but not found in any repository)"))
		}
	}
	return nil
}
