// ABOUTME: health command that probes a running gateway
// ABOUTME: Calls /health/ready and reports the result

package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var healthURL string

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
	cmd.Flags().StringVar(&healthURL, "url", "", "gateway base URL (default from server.http_addr)")
	return cmd
}

// baseURL returns the gateway URL from a flag value or the config.
func baseURL(flagValue string) (string, error) {
	if flagValue != "" {
		return strings.TrimRight(flagValue, "/"), nil
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Server.HTTPAddr, nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	base, err := baseURL(healthURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, base+"/health/ready", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "healthy: %s\n", strings.TrimSpace(string(body)))
	return nil
}
