// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	localizeOverwrite bool

	localizeCmd = &cobra.Command{
		Use:   "localize <requirement>...",
		Short: "Materialize modules into the home repository",
		Long: `Resolve the requirements and download any remote-backed modules into the
home repository so later activations need no network access. Modules
already on local storage are left where they are.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLocalize,
	}
)

func init() {
	localizeCmd.Flags().BoolVar(&localizeOverwrite, "overwrite", false, "replace already-localized modules")
}

func runLocalize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}

	refs, err := resolveAndLocalize(cmd.Context(), a, args, localizeOverwrite)
	if err != nil {
		return fail(err)
	}

	for _, ref := range refs {
		mod, _ := ref.Module()
		fmt.Println(SuccessStyle.Render("Localized: ") + ModuleStyle.Render(mod.RealName()) + " at " + mod.Path)
	}
	return nil
}
