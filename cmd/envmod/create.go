// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/pkg/envmod"
)

var (
	createDescription string
	createAuthor      string
	createEmail       string

	createCmd = &cobra.Command{
		Use:   "create <path>",
		Short: "Create a new module",
		Long: `Scaffold a module at the given path: a module.yml document plus an empty
hooks directory. The module name and version are inferred from the path's
base name ("maya-2024.1" becomes name maya, version 2024.1). Global
pre_create and post_create hooks from the home repository run around the
scaffolding.`,
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}
)

func init() {
	createCmd.Flags().StringVar(&createDescription, "description", "", "module description")
	createCmd.Flags().StringVar(&createAuthor, "author", "", "module author")
	createCmd.Flags().StringVar(&createEmail, "email", "", "author email")
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}

	name, version := envmod.ParseModulePath(args[0])
	meta := &envmod.Metadata{
		Name:        name,
		Version:     version,
		Description: createDescription,
		Author:      createAuthor,
		Email:       createEmail,
	}

	mod, err := envmod.Create(cmd.Context(), args[0], meta, a.globalHook())
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("create module").
			WithResource(args[0]).
			WithSuggestion("Choose a path that does not exist yet").
			Wrap(err).
			Build())
	}

	fmt.Println(SuccessStyle.Render("Created: ") + ModuleStyle.Render(mod.RealName()) + " at " + mod.Path)
	return nil
}
