// ABOUTME: Root cobra command, global flags, and shared config loading
// ABOUTME: Subcommands resolve the config path through loadConfig

package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/2389/switchboard/internal/config"
)

const banner = `
             _ _       _     _                         _
 _____      _(_) |_ ___| |__ | |__   ___   __ _ _ __ __| |
/ __\ \ /\ / / | __/ __| '_ \| '_ \ / _ \ / _' | '__/ _' |
\__ \\ V  V /| | || (__| | | | |_) | (_) | (_| | | | (_| |
|___/ \_/\_/ |_|\__\___|_| |_|_.__/ \___/ \__,_|_|  \__,_|
`

var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switchboard",
		Short: "Triage gateway that routes member messages to specialists",
		Long: `switchboard classifies each incoming member message, hands it to exactly
one specialist (billing, booking, tech_support, retention), and checkpoints
the conversation so every thread survives restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $SWITCHBOARD_CONFIG or $XDG_CONFIG_HOME/switchboard/switchboard.yaml)")

	cmd.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newSeedCmd(),
		newChatCmd(),
		newHealthCmd(),
		newVersionCmd(),
	)
	return cmd
}

// resolveConfigPath returns the --config flag or the default location.
func resolveConfigPath() (string, bool) {
	if configPath != "" {
		return configPath, true
	}
	return config.DefaultPath(), false
}

// loadConfig loads the config file. A missing file at the default location
// yields the built-in defaults; a missing file named by --config is an error.
func loadConfig() (*config.Config, string, error) {
	path, explicit := resolveConfigPath()
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), "(defaults)", nil
	}
	return nil, path, fmt.Errorf("loading config: %w", err)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "switchboard %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Built:  %s\n", date)
		},
	}
}
