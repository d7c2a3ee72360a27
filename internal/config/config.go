// SPDX-License-Identifier: MPL-2.0

// Package config resolves envmod settings and repository paths from the
// config file and the process environment contract.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "envmod"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yml"

	// HomeVar overrides the home repository root.
	HomeVar = "ENVMOD_HOME"
	// ModulesVar lists extra local repository roots, separated by the
	// platform path list separator.
	ModulesVar = "ENVMOD_MODULES"
)

// Repository kinds accepted in the remotes section.
const (
	RemoteKindHTTP RemoteKind = "http"
	RemoteKindGit  RemoteKind = "git"
)

type (
	// RemoteKind identifies a remote repository transport.
	RemoteKind string

	// Remote configures one remote repository.
	Remote struct {
		Name string     `mapstructure:"name"`
		Kind RemoteKind `mapstructure:"kind"`
		URL  string     `mapstructure:"url"`
	}

	// Config is the resolved application configuration.
	Config struct {
		// Home is the home repository root.
		Home string `mapstructure:"home"`
		// Remotes are the configured remote repositories, in search order.
		Remotes []Remote `mapstructure:"remotes"`
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`
	}
)

// ConfigDir returns the envmod configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultHome returns the default home repository root, ~/.envmod/modules.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName, "modules"), nil
}

// CacheDir returns the transport cache directory for remote repositories.
func CacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName, "cache"), nil
}

// Load reads the configuration. An explicit configFilePath is used
// exclusively; otherwise the platform config directory is searched, and a
// missing file yields defaults. The home repository resolves in priority
// order: ENVMOD_HOME, the config file, the platform default.
func Load(configFilePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)
	v.SetDefault("verbose", false)

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFilePath, err)
		}
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if envHome := os.Getenv(HomeVar); envHome != "" {
		cfg.Home = envHome
	}
	if cfg.Home == "" {
		home, err := DefaultHome()
		if err != nil {
			return nil, err
		}
		cfg.Home = home
	}

	for _, remote := range cfg.Remotes {
		if err := remote.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Validate checks a remote entry.
func (r Remote) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("remote with url %q: missing name", r.URL)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("remote %s: missing url", r.Name)
	}
	switch r.Kind {
	case RemoteKindHTTP, RemoteKindGit:
		return nil
	default:
		return fmt.Errorf("remote %s: unknown kind %q", r.Name, r.Kind)
	}
}

// ModulePaths returns the extra local repository roots from the environment
// contract, split on the platform path list separator with blanks dropped.
func ModulePaths() []string {
	var paths []string
	for _, p := range strings.Split(os.Getenv(ModulesVar), string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
