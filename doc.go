// Package waypoint provides an embeddable navigation history for
// applications that route between locations.
//
// A [History] tracks the current [Location] and an ordered stack of
// entries. It supports push, replace, back and forward navigation, gates
// every transition behind transition hooks and a user confirmation
// strategy, and notifies change listeners after each committed transition.
//
// # Quick Start
//
//	h, err := waypoint.New()
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	unlisten := h.Listen(func(loc waypoint.Location) {
//	    fmt.Println(loc.NavigationType, loc.Pathname, loc.Search)
//	})
//	defer unlisten()
//
//	_ = h.PushState(ctx, map[string]any{"the": "state"}, "/home?the=query")
//	// PUSH /home ?the=query
//
// # Confirming Transitions
//
// Transition hooks run before anything changes. The first hook that
// returns a non-empty message causes the [ConfirmFunc] configured with
// [WithUserConfirmation] to be asked once; declining leaves the location
// untouched, fires no listener and returns [ErrTransitionCancelled]:
//
//	h, _ := waypoint.New(waypoint.WithUserConfirmation(askUser))
//	h.RegisterTransitionHook(func(t waypoint.Transition) string {
//	    if formIsDirty() {
//	        return "Discard your changes?"
//	    }
//	    return ""
//	})
//
// Callback-style confirmation strategies are adapted with
// [CallbackConfirmation].
//
// # Journal and Inspector
//
// Every committed location is appended to a journal, in memory by default
// or in SQLite with [WithJournalFile]. [History.Commits] reads it back and
// [History.Serve] exposes the history over HTTP, including a Server-Sent
// Events stream of commits.
//
// # Architecture
//
// Waypoint consists of several internal packages (under internal/):
//
//   - internal/journal: Append-only commit log with pub/sub (memory and SQLite)
//   - internal/server: HTTP inspector with REST API and Server-Sent Events
//   - dashboard: Embedded inspector page served at "/"
//
// The config package loads YAML or TOML files into [Option] values for the
// standalone waypoint binary.
package waypoint
