// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/envmod/envmod/pkg/envmod"
)

// confirm asks a yes/no question on the terminal. Anything but "y"/"yes"
// declines.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// chooseRepo resolves a repository choice. An explicit name must exist; with
// no name the home repository is offered as the default and the registered
// repositories listed for selection by number or name.
func (a *app) chooseRepo(name string) (envmod.Repo, error) {
	if name != "" {
		r, ok := a.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown repository %q", name)
		}
		return r, nil
	}

	repos := a.registry.Repos()
	fmt.Println(SubtitleStyle.Render("Available repositories:"))
	for i, r := range repos {
		marker := " "
		if r == a.home {
			marker = "*"
		}
		fmt.Printf("  %s %d. %s\n", marker, i+1, r.Name())
	}
	fmt.Print("Choose a repository [home]: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, err
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		return a.home, nil
	}
	if idx, err := strconv.Atoi(choice); err == nil {
		if idx < 1 || idx > len(repos) {
			return nil, fmt.Errorf("invalid choice %d", idx)
		}
		return repos[idx-1], nil
	}
	r, ok := a.registry.Get(choice)
	if !ok {
		return nil, fmt.Errorf("unknown repository %q", choice)
	}
	return r, nil
}
