package waypoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/waypoint/dashboard"
	"github.com/jpalmerr/waypoint/internal/journal"
	"github.com/jpalmerr/waypoint/internal/server"
)

// Serve runs the HTTP inspector for h on the given port.
//
// Serve is a blocking call that runs until ctx is cancelled. The inspector
// exposes the current location, the entry stack, the commit journal (also
// as a Server-Sent Events stream at /api/sse) and accepts remote navigation
// at POST /api/navigate. Remote navigation goes through the same
// confirmation protocol as local calls.
//
// Returns nil on graceful shutdown, or an error if the port is invalid or
// the server fails to start.
func (h *History) Serve(ctx context.Context, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	if ctx.Err() != nil {
		return nil
	}

	srv := server.NewServer(navigator{h}, h.journal, port, dashboard.Assets, h.logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start inspector: %w", err)
	}
	h.logger.Info("inspector available", "url", fmt.Sprintf("http://localhost:%d", port))

	<-ctx.Done()
	h.logger.Info("inspector stopped")
	return nil
}

// navigator adapts a History to the inspector's Navigator interface.
type navigator struct {
	h *History
}

func (n navigator) Snapshot() server.Snapshot {
	n.h.mu.Lock()
	entries := make([]Location, len(n.h.entries))
	copy(entries, n.h.entries)
	index := n.h.index
	current := n.h.current
	n.h.mu.Unlock()

	snap := server.Snapshot{
		Index:   index,
		Current: n.toRecord(current),
		Entries: make([]journal.Record, len(entries)),
	}
	for i, loc := range entries {
		snap.Entries[i] = n.toRecord(loc)
	}
	return snap
}

func (n navigator) Navigate(ctx context.Context, cmd server.Command) error {
	var err error
	switch cmd.Action {
	case "push", "replace":
		var state any
		if len(cmd.State) > 0 {
			if jsonErr := json.Unmarshal(cmd.State, &state); jsonErr != nil {
				return fmt.Errorf("%w: state: %v", server.ErrInvalid, jsonErr)
			}
		}
		if cmd.Action == "push" {
			err = n.h.PushState(ctx, state, cmd.Path)
		} else {
			err = n.h.ReplaceState(ctx, state, cmd.Path)
		}
	case "back":
		err = n.h.GoBack(ctx)
	case "forward":
		err = n.h.GoForward(ctx)
	default:
		return fmt.Errorf("%w: unknown action %q", server.ErrInvalid, cmd.Action)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidPath):
		return fmt.Errorf("%w: %w", server.ErrInvalid, err)
	case errors.Is(err, ErrTransitionCancelled),
		errors.Is(err, ErrTransitionPending),
		errors.Is(err, ErrNoPreviousEntry),
		errors.Is(err, ErrNoNextEntry):
		return fmt.Errorf("%w: %w", server.ErrRejected, err)
	default:
		return err
	}
}

// toRecord converts a location for the inspector. State that cannot be
// encoded is omitted.
func (n navigator) toRecord(loc Location) journal.Record {
	rec := locationToRecord(loc, time.Time{})
	if loc.State != nil {
		if data, err := json.Marshal(loc.State); err == nil {
			rec.State = data
		}
	}
	return rec
}
