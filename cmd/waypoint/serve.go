package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/waypoint"
	"github.com/jpalmerr/waypoint/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// newHistory loads the config file named by the --config flag and builds a
// History from it. Prompts are asked on stderr and answered on stdin.
func newHistory(cmd *cobra.Command, logger *slog.Logger) (*waypoint.History, *config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := config.BuildOptions(cfg, promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, waypoint.WithLogger(logger))

	h, err := waypoint.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create history: %w", err)
	}
	return h, cfg, nil
}

// serveCmd starts the inspector server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the history inspector",
	Long: `Start the Waypoint history inspector.

The server will:
  - Load configuration from the specified YAML or TOML file
  - Create a history at the configured initial path
  - Serve the location, entries and journal as JSON on the configured port
  - Accept navigation commands at POST /api/navigate

Guarded transitions with confirm: prompt are asked on the terminal.
The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  waypoint serve -c config.yaml
  waypoint serve --config /etc/waypoint/config.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	h, cfg, err := newHistory(cmd, logger)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	logger.Info("config loaded",
		"initial_path", cfg.InitialPath,
		"confirm", cfg.Confirm,
		"journal", cfg.Journal.Driver,
		"guards", len(cfg.Guards),
	)
	logger.Info("starting server", "port", cfg.Port)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- h.Serve(ctx, cfg.Port)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
