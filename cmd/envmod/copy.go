// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/pkg/resolve"
)

var (
	copyRepo      string
	copyOverwrite bool

	copyCmd = &cobra.Command{
		Use:   "copy <requirement>... --repo <name>",
		Short: "Copy modules between repositories",
		Long: `Resolve the requirements and copy the resolved modules into another
repository through a transient local staging area.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCopy,
	}
)

func init() {
	copyCmd.Flags().StringVar(&copyRepo, "repo", "", "destination repository name")
	copyCmd.Flags().BoolVar(&copyOverwrite, "overwrite", false, "replace modules the destination already holds")
}

func runCopy(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	ctx := cmd.Context()

	specs, err := a.resolver().ResolveStrings(ctx, args)
	if err != nil {
		return fail(issue.WrapWithOperation(err, "resolve requirements"))
	}

	dest, err := a.chooseRepo(copyRepo)
	if err != nil {
		return fail(err)
	}

	copier := &resolve.Copier{Overwrite: copyOverwrite}
	copied, err := copier.Copy(ctx, specs, dest)
	for _, spec := range copied {
		fmt.Println(SuccessStyle.Render("Copied: ") + ModuleStyle.Render(spec.RealName()) + " to " + dest.Name())
	}
	if err != nil {
		return fail(issue.WrapWithOperation(err, "copy modules"))
	}
	return nil
}
