// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmod/envmod/pkg/repo"
)

var (
	repoCmd = &cobra.Command{
		Use:   "repo",
		Short: "Inspect configured repositories",
	}

	repoListCmd = &cobra.Command{
		Use:   "list",
		Short: "List repositories in search order",
		Args:  cobra.NoArgs,
		RunE:  runRepoList,
	}
)

func init() {
	repoCmd.AddCommand(repoListCmd)
}

func runRepoList(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}

	fmt.Println(TitleStyle.Render("Repositories") + SubtitleStyle.Render(" (search order)"))
	for i, r := range a.registry.Repos() {
		location := ""
		switch v := r.(type) {
		case *repo.LocalRepo:
			location = v.Path()
		case *repo.HTTPRepo:
			location = v.URL()
		case *repo.GitRepo:
			location = v.URL()
		}
		fmt.Printf("  %d. %s  %s\n", i+1, ModuleStyle.Render(r.Name()), SubtitleStyle.Render(location))
	}
	return nil
}
