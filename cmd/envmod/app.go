// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/envmod/envmod/internal/activate"
	"github.com/envmod/envmod/internal/config"
	"github.com/envmod/envmod/internal/hook"
	"github.com/envmod/envmod/internal/logx"
	"github.com/envmod/envmod/pkg/envmod"
	"github.com/envmod/envmod/pkg/repo"
	"github.com/envmod/envmod/pkg/resolve"
)

// app is the composition root shared by all commands: resolved config, the
// repository registry in search order, and the session's activation state.
type app struct {
	cfg      *config.Config
	registry *repo.Registry
	home     *repo.LocalRepo
	env      activate.Environ
}

// newApp loads configuration and builds the repository registry. Search
// order: the working directory's module dir, the home repository, the extra
// roots from ENVMOD_MODULES, then configured remotes.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if homeFlag != "" {
		cfg.Home = homeFlag
	}

	registry := repo.NewRegistry()

	if cwd, err := os.Getwd(); err == nil {
		if err := registry.Add(repo.NewLocalRepo("cwd", cwd)); err != nil {
			return nil, err
		}
	}

	home := repo.NewLocalRepo("home", cfg.Home)
	if err := registry.Add(home); err != nil {
		return nil, err
	}

	for i, path := range config.ModulePaths() {
		name := fmt.Sprintf("modules%d", i+1)
		if err := registry.Add(repo.NewLocalRepo(name, path)); err != nil {
			return nil, err
		}
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}
	for _, remote := range cfg.Remotes {
		var r envmod.Repo
		switch remote.Kind {
		case config.RemoteKindGit:
			r = repo.NewGitRepo(remote.Name, remote.URL, cacheDir)
		default:
			r = repo.NewHTTPRepo(remote.Name, remote.URL)
		}
		if err := registry.Add(r); err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		home:     home,
		env:      activate.OSEnviron{},
	}, nil
}

// resolver returns a resolver over the registry's search order.
func (a *app) resolver() *resolve.Resolver {
	return resolve.NewResolver(a.registry.Repos())
}

// localizer returns a localizer targeting the home repository.
func (a *app) localizer(overwrite bool) *resolve.Localizer {
	l := resolve.NewLocalizer(a.home)
	l.Overwrite = overwrite
	return l
}

// activator restores the previously-active set from the environment contract
// and returns an activator resuming it. Stale entries naming modules that no
// longer exist are reported as warnings by the activate command.
func (a *app) activator() *activate.Activator {
	serialized, _ := a.env.Get(activate.ActiveModulesVar)
	return activate.NewActivator(a.env, activate.ParseActiveSet(serialized))
}

// globalHook runs the home repository's global create hooks (pre_create,
// post_create) stored under <home>/hooks.
func (a *app) globalHook() envmod.HookFunc {
	runner := hook.NewRunner()
	hooksDir := filepath.Join(a.home.Path(), envmod.HooksDirName)
	return func(ctx context.Context, point, modulePath string) error {
		res, err := runner.Run(ctx, hooksDir, hook.Point(point), modulePath)
		if err != nil {
			return err
		}
		if res.Ran {
			logx.Debug("global hook", "point", point, "output", res.Output)
		}
		return nil
	}
}
