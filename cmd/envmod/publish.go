// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/pkg/envmod"
)

var (
	publishRepo      string
	publishOverwrite bool

	publishCmd = &cobra.Command{
		Use:   "publish <module-path>",
		Short: "Publish a local module to a repository",
		Long: `Upload the module at the given path into a repository, keyed by its
real_name. Without --repo the repository is chosen interactively, with
the home repository as the default.`,
		Args: cobra.ExactArgs(1),
		RunE: runPublish,
	}
)

func init() {
	publishCmd.Flags().StringVar(&publishRepo, "repo", "", "destination repository name")
	publishCmd.Flags().BoolVar(&publishOverwrite, "overwrite", false, "replace the module if the repository already holds it")
}

func runPublish(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}

	mod, err := envmod.LoadModule(args[0])
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("load module").
			WithResource(args[0]).
			WithSuggestion("The path must contain a valid module.yml").
			Wrap(err).
			Build())
	}

	dest, err := a.chooseRepo(publishRepo)
	if err != nil {
		return fail(err)
	}

	spec, err := dest.Upload(cmd.Context(), mod, publishOverwrite)
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("publish module").
			WithResource(mod.RealName()).
			WithSuggestion("Pass --overwrite to replace the published version").
			Wrap(err).
			Build())
	}

	fmt.Println(SuccessStyle.Render("Published: ") + ModuleStyle.Render(spec.RealName()) + " to " + dest.Name())
	return nil
}
