package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/waypoint"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// remote navigation out of /compose is always declined
	h, err := waypoint.New(
		waypoint.WithInitialPath("/inbox"),
		waypoint.WithUserConfirmation(waypoint.NeverConfirm),
		waypoint.WithTransitionHook(func(t waypoint.Transition) string {
			if t.From.Pathname == "/compose" && t.To.Pathname != "/compose" {
				return "Discard the unsaved draft?"
			}
			return ""
		}),
		waypoint.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create history", "error", err)
		os.Exit(1)
	}
	defer func() { _ = h.Close() }()

	h.Listen(func(loc waypoint.Location) {
		logger.Info("navigated", "type", loc.NavigationType, "path", loc.Path())
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = h.PushState(ctx, map[string]any{"unread": 3}, "/inbox?folder=work")

	fmt.Println()
	fmt.Println("  Waypoint Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser, or try:")
	fmt.Println(`    curl -d '{"action":"push","path":"/compose"}' localhost:8080/api/navigate`)
	fmt.Println(`    curl -d '{"action":"back"}' localhost:8080/api/navigate   # 409, guarded`)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := h.Serve(ctx, 8080); err != nil {
		slog.Error("waypoint error", "error", err)
		os.Exit(1)
	}
}
