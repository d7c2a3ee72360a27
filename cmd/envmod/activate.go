// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/internal/shell"
	"github.com/envmod/envmod/pkg/envmod"
)

var (
	activateCommand   string
	activateOverwrite bool
	activateVirtual   bool

	activateCmd = &cobra.Command{
		Use:   "activate <requirement>...",
		Short: "Activate modules and launch a shell",
		Long: `Resolve the requirements, localize the resolved modules into the home
repository, merge their environment changes and launch an interactive
shell carrying the composed environment. With --command, run one command
instead of launching a shell.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runActivate,
	}

	deactivateCmd = &cobra.Command{
		Use:   "deactivate <real_name>...",
		Short: "Remove modules from the active set",
		Long: `Unregister modules from the active-module registry. Environment changes
applied at activation time stay in effect until the session ends.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDeactivate,
	}
)

func init() {
	activateCmd.Flags().StringVarP(&activateCommand, "command", "c", "", "run a single command instead of launching a shell")
	activateCmd.Flags().BoolVar(&activateOverwrite, "overwrite", false, "replace already-localized modules")
	activateCmd.Flags().BoolVar(&activateVirtual, "virtual", false, "run --command in the embedded shell interpreter")
}

func runActivate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	ctx := cmd.Context()

	refs, err := resolveAndLocalize(ctx, a, args, activateOverwrite)
	if err != nil {
		return fail(err)
	}

	activator := a.activator()
	mods, err := activator.Activate(ctx, refs)
	if err != nil {
		return fail(issue.NewErrorContext().
			WithOperation("activate modules").
			WithResource(strings.Join(args, " ")).
			WithSuggestion("Check the failing module's pre_activate hook").
			Wrap(err).
			Build())
	}

	names := make([]string, len(mods))
	for i, mod := range mods {
		names[i] = ModuleStyle.Render(mod.RealName())
	}
	fmt.Println(SuccessStyle.Render("Activated: ") + strings.Join(names, ", "))

	env := a.env.Environ()
	var code int
	if activateCommand != "" {
		code, err = execCommand(ctx, activateCommand, activateVirtual, env, shell.StdIO())
	} else {
		code, err = shell.Launch(ctx, env, shell.StdIO())
	}
	if err != nil {
		return fail(err)
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// execCommand runs a one-shot command through the native shell, or through
// the embedded interpreter on hosts without a usable system shell.
func execCommand(ctx context.Context, command string, virtual bool, env []string, io shell.IO) (int, error) {
	if virtual {
		return shell.RunVirtual(ctx, command, env, io)
	}
	return shell.Run(ctx, command, env, io)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	activator := a.activator()
	if err := activator.Deactivate(args); err != nil {
		return fail(err)
	}
	fmt.Println(SuccessStyle.Render("Deactivated: ") + strings.Join(args, ", "))
	return nil
}

// resolveAndLocalize is the shared front half of activation-style commands:
// resolve requirements against the registry, then materialize the resolved
// specs into the home repository.
func resolveAndLocalize(ctx context.Context, a *app, reqs []string, overwrite bool) ([]envmod.Reference, error) {
	specs, err := a.resolver().ResolveStrings(ctx, reqs)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve requirements").
			WithResource(strings.Join(reqs, " ")).
			WithSuggestion("Run 'envmod list' to see available modules").
			WithSuggestion("Check ENVMOD_HOME and ENVMOD_MODULES point at your repositories").
			Wrap(err).
			Build()
	}
	refs, err := a.localizer(overwrite).Localize(ctx, specs)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "localize modules")
	}
	return refs, nil
}
