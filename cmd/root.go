package cmd

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cmccoy02/bridge-engine/config"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath    string
	tokenOverride string
	verbose       bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Dependency update decision and execution engine for npm projects",
	Long: `Bridge scans npm projects for outdated dependencies, prioritizes them
by impact and risk, and runs safe automated update jobs that validate
every change before opening a pull request.

Usage modes:
  bridge scan [path]          Prioritize the outdated packages of a local project
  bridge update <org/repo>    Run the update pipeline against a repository
  bridge jobs [id]            Inspect past and running jobs`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&tokenOverride, "token", "",
		"Auth token for the Git provider (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}

// loadConfig locates and loads the configuration, applying CLI overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf(
				"no config file found: %w\nSpecify one with --config or create bridge.yaml", err)
		}
	}
	logger.Infof("Using config file: %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if tokenOverride != "" {
		cfg.Provider.Token = tokenOverride
	}
	return cfg, nil
}
