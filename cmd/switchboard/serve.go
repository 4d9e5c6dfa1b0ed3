// ABOUTME: serve command that runs the gateway until interrupted
// ABOUTME: Prints the startup banner and a summary of the active configuration

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/switchboard/internal/gateway"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	logger := setupLogger(cfg.Logging)

	line := func(label, value string) {
		green.Print("    ▶ ")
		fmt.Printf("%-11s%s\n", label+":", value)
	}
	line("Config", path)
	line("HTTP", cfg.Server.HTTPAddr)
	line("Database", cfg.Database.Path)
	line("Records", cfg.Records.Path)
	if cfg.ModelEnabled() {
		line("Model", cfg.LLM.Provider+" "+cfg.LLM.Model)
	} else {
		green.Print("    ▶ ")
		fmt.Printf("%-11s", "Model:")
		yellow.Println("none (offline specialists)")
	}
	line("Classifier", cfg.Dispatch.Classifier)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("%-11s", "Tailscale:")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}
	fmt.Println()

	logger.Info("starting switchboard",
		"config", path,
		"http_addr", cfg.Server.HTTPAddr,
		"provider", cfg.LLM.Provider,
		"classifier", cfg.Dispatch.Classifier,
	)

	gw, err := gateway.New(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	return gw.Run(cmd.Context())
}
