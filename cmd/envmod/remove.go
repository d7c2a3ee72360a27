// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/pkg/envmod"
)

var (
	removeYes bool

	removeCmd = &cobra.Command{
		Use:   "remove <requirement>...",
		Short: "Delete modules from their repositories",
		Long: `Resolve the requirements and delete the resolved modules' storage from
their owning repositories. Asks for confirmation unless --yes is given;
declining exits with status 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRemove,
	}
)

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	ctx := cmd.Context()

	reqs, err := envmod.ParseRequirements(args)
	if err != nil {
		return fail(err)
	}
	specs, err := a.resolver().Resolve(ctx, reqs)
	if err != nil {
		return fail(issue.WrapWithOperation(err, "resolve requirements"))
	}

	// Only the named requirements are removed, never their dependencies: a
	// dependency may be shared with modules that stay.
	var targets []*envmod.ModuleSpec
	for _, spec := range specs {
		for _, req := range reqs {
			if req.Matches(spec) {
				targets = append(targets, spec)
				break
			}
		}
	}

	names := make([]string, len(targets))
	for i, spec := range targets {
		names[i] = spec.RealName()
	}
	slices.Sort(names)

	if !removeYes && !confirm("Remove "+strings.Join(names, ", ")+"?") {
		return &ExitError{Code: 1}
	}

	for _, spec := range targets {
		if err := spec.Repo.Remove(ctx, spec); err != nil {
			return fail(issue.NewErrorContext().
				WithOperation("remove module").
				WithResource(spec.RealName()).
				Wrap(err).
				Build())
		}
		fmt.Println(SuccessStyle.Render("Removed: ") + ModuleStyle.Render(spec.RealName()) + " from " + spec.Repo.Name())
	}
	return nil
}
