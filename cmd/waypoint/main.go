// Package main is the entry point for the waypoint CLI.
//
// Waypoint can be embedded as a library (SDK) or run as a standalone binary
// with a YAML or TOML configuration. This CLI provides the standalone
// binary approach.
//
// Usage:
//
//	waypoint serve -c config.yaml           # Start the history inspector
//	waypoint replay -c config.yaml nav.txt  # Replay a navigation script
//	waypoint validate -c config.yaml        # Validate configuration
//	waypoint version                        # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "A navigation history with confirmable transitions",
	Long: `Waypoint tracks a navigation history: a current location and a stack
of entries, with transition hooks that can ask the user to confirm before
leaving a location.

Quick start:
  1. Create a config file (waypoint.yaml)
  2. Run: waypoint serve -c waypoint.yaml
  3. Open http://localhost:8080/api/location

Example config:
  port: 8080
  initial_path: /inbox
  confirm: prompt
  guards:
    - prefix: /compose
      message: Discard the unsaved draft?`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this waypoint binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waypoint %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
