// ABOUTME: init command that writes a default config file
// ABOUTME: Refuses to overwrite and creates the data directory

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/switchboard/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration to the config path.

The file is YAML and can be edited afterwards. Values of the form ${VAR}
are expanded from the environment when the file is loaded.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	path, _ := resolveConfigPath()
	if err := config.WriteDefault(path); err != nil {
		return err
	}

	cfg := config.Default()
	dataDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	green.Fprintf(out, "  ✓ Created config: %s\n", path)
	green.Fprintf(out, "  ✓ Data directory: %s\n", dataDir)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  To start the server:")
	fmt.Fprintln(out, "    switchboard serve")
	return nil
}
