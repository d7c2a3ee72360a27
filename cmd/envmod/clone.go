// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
)

var (
	cloneOverwrite bool

	cloneCmd = &cobra.Command{
		Use:   "clone <requirement> [dest]",
		Short: "Copy a module into a working directory",
		Long: `Resolve one requirement and download the module into dest for editing.
Without dest the module lands in ./<real_name>.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runClone,
	}
)

func init() {
	cloneCmd.Flags().BoolVar(&cloneOverwrite, "overwrite", false, "replace the destination if it exists")
}

func runClone(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	ctx := cmd.Context()

	specs, err := a.resolver().ResolveStrings(ctx, args[:1])
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("resolve requirement").
			WithResource(args[0]).
			WithSuggestion("Run 'envmod list' to see available modules").
			Wrap(err).
			Build())
	}
	// The requirement's own module resolves last, after its dependencies.
	spec := specs[len(specs)-1]

	dest := "./" + spec.RealName()
	if len(args) == 2 {
		dest = args[1]
	}

	mod, err := spec.Repo.Download(ctx, spec, dest, cloneOverwrite)
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("clone module").
			WithResource(spec.RealName()).
			WithSuggestion("Pass --overwrite to replace an existing destination").
			Wrap(err).
			Build())
	}

	fmt.Println(SuccessStyle.Render("Cloned: ") + ModuleStyle.Render(mod.RealName()) + " to " + mod.Path)
	return nil
}
