// ABOUTME: seed command that resets the member records database
// ABOUTME: Replaces all users, subscriptions, classes, and articles with demo data

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/switchboard/internal/capability"
)

var seedIfEmpty bool

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the records database to the demo data set",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
	cmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "Only seed when the records database has no users")
	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := capability.NewSQLiteRecords(cfg.Records.Path, capability.RecordsOptions{})
	if err != nil {
		return fmt.Errorf("opening records: %w", err)
	}
	defer records.Close()

	var summary *capability.SeedSummary
	if seedIfEmpty {
		summary, err = records.SeedIfEmpty(cmd.Context())
	} else {
		summary, err = records.Seed(cmd.Context())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if summary == nil {
		fmt.Fprintf(out, "  Records already present in %s, nothing to do\n", cfg.Records.Path)
		return nil
	}
	color.New(color.FgGreen).Fprintf(out, "  ✓ Seeded %s\n", cfg.Records.Path)
	fmt.Fprintf(out, "    users: %d  experiences: %d  articles: %d\n", summary.Users, summary.Experiences, summary.Articles)
	return nil
}
