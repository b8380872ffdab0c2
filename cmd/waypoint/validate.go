package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/waypoint/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Waypoint configuration file without starting the server.

This command parses the file, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  waypoint validate -c config.yaml
  waypoint validate --config /etc/waypoint/config.toml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	journal := cfg.Journal.Driver
	if cfg.Journal.Path != "" {
		journal = fmt.Sprintf("%s (%s)", cfg.Journal.Driver, cfg.Journal.Path)
	}
	confirm := cfg.Confirm
	if cfg.ConfirmTimeout.Duration() > 0 {
		confirm = fmt.Sprintf("%s (timeout %s)", cfg.Confirm, cfg.ConfirmTimeout.Duration())
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Initial path:  %s\n", cfg.InitialPath)
	fmt.Printf("  Confirm:       %s\n", confirm)
	fmt.Printf("  Journal:       %s\n", journal)
	fmt.Printf("  Guards:        %d\n", len(cfg.Guards))

	return nil
}
