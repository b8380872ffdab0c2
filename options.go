package waypoint

import (
	"errors"
	"fmt"
	"log/slog"
)

// historyConfig holds mutable state during History construction.
type historyConfig struct {
	confirm         ConfirmFunc
	initialPath     string
	initialState    any
	keyFunc         func() string
	maxEntries      int
	logger          *slog.Logger
	hooks           []TransitionHook
	journalPath     string
	journalCapacity int
}

// Option is a function that configures a [History] during construction.
//
// Options return an error if validation fails; [New] reports the first
// such error.
type Option func(*historyConfig) error

// WithUserConfirmation sets the strategy used to ask the user whether a
// transition may proceed when a [TransitionHook] returns a message.
//
// Defaults to [AlwaysConfirm]. Callback-style strategies can be adapted
// with [CallbackConfirmation].
//
// Example:
//
//	h, err := waypoint.New(
//	    waypoint.WithUserConfirmation(waypoint.CallbackConfirmation(
//	        func(message string, callback func(bool)) {
//	            callback(askUser(message))
//	        },
//	    )),
//	)
//
// Returns an error if confirm is nil.
func WithUserConfirmation(confirm ConfirmFunc) Option {
	return func(cfg *historyConfig) error {
		if confirm == nil {
			return errors.New("confirmation function cannot be nil")
		}
		cfg.confirm = confirm
		return nil
	}
}

// WithInitialPath sets the path of the entry the history starts on.
// Defaults to "/".
//
// Returns an error if the path does not start with "/".
func WithInitialPath(path string) Option {
	return func(cfg *historyConfig) error {
		if _, err := ParsePath(path); err != nil {
			return fmt.Errorf("initial path: %w", err)
		}
		cfg.initialPath = path
		return nil
	}
}

// WithInitialState sets the state of the initial entry.
func WithInitialState(state any) Option {
	return func(cfg *historyConfig) error {
		cfg.initialState = state
		return nil
	}
}

// WithKeyFunc replaces the generator used for location keys.
//
// The default generator returns random UUIDs. A custom generator must
// never return the same key twice within a session and never return "".
//
// Returns an error if fn is nil.
func WithKeyFunc(fn func() string) Option {
	return func(cfg *historyConfig) error {
		if fn == nil {
			return errors.New("key function cannot be nil")
		}
		cfg.keyFunc = fn
		return nil
	}
}

// WithMaxEntries bounds the number of entries kept in the history.
// When a push exceeds the bound, the oldest entries are dropped.
// Unbounded by default.
//
// Returns an error if n is zero or negative.
func WithMaxEntries(n int) Option {
	return func(cfg *historyConfig) error {
		if n <= 0 {
			return errors.New("max entries must be positive")
		}
		cfg.maxEntries = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the History.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *historyConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTransitionHook registers a [TransitionHook] at construction time.
//
// Hooks registered this way are consulted before hooks added later with
// [History.RegisterTransitionHook] and cannot be unregistered.
// Nil hooks are silently ignored.
func WithTransitionHook(hook TransitionHook) Option {
	return func(cfg *historyConfig) error {
		if hook == nil {
			return nil
		}
		cfg.hooks = append(cfg.hooks, hook)
		return nil
	}
}

// WithJournalFile persists the commit journal to a SQLite database at
// path instead of keeping it in memory.
//
// Returns an error if path is empty.
func WithJournalFile(path string) Option {
	return func(cfg *historyConfig) error {
		if path == "" {
			return errors.New("journal path cannot be empty")
		}
		cfg.journalPath = path
		return nil
	}
}

// WithJournalCapacity sets how many records the in-memory journal keeps,
// or how many keys the SQLite journal caches for lookups.
// Defaults to 1000.
//
// Returns an error if n is zero or negative.
func WithJournalCapacity(n int) Option {
	return func(cfg *historyConfig) error {
		if n <= 0 {
			return errors.New("journal capacity must be positive")
		}
		cfg.journalCapacity = n
		return nil
	}
}
