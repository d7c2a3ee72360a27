// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/envmod/envmod/internal/issue"
	"github.com/envmod/envmod/internal/logx"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string
	// homeFlag overrides the home repository root.
	homeFlag string

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "envmod",
		Short: "Environment module manager",
		Long: TitleStyle.Render("envmod") + SubtitleStyle.Render(" - Environment module manager") + `

envmod resolves, localizes and activates versioned environment modules.
A module bundles environment variable changes, dependencies on other
modules and lifecycle hooks behind a single name.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a module:       envmod create my_tool-0.1.0
  2. Edit its module.yml to declare environment changes
  3. Activate it:           envmod activate my_tool

` + SubtitleStyle.Render("Examples:") + `
  envmod list                       List active and available modules
  envmod activate maya==2024.1      Launch a shell with maya active
  envmod activate maya -c "render"  Run one command with maya active
  envmod publish ./maya-2024.1      Publish a module to a repository`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/envmod/config.yml)")
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "home repository root (overrides ENVMOD_HOME)")

	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(localizeCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(repoCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig applies the global flags before any command runs.
func initRootConfig() {
	logx.Setup(verbose)
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail wraps err for display and signals exit code 1.
func fail(err error) error {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	return &ExitError{Code: 1}
}
