package waypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/jpalmerr/waypoint/internal/journal"
)

const defaultInitialPath = "/"

var (
	// ErrTransitionCancelled is returned when the user declines a
	// transition. The current location is left unchanged.
	ErrTransitionCancelled = errors.New("transition cancelled")

	// ErrTransitionPending is returned when a navigation is requested while
	// another transition is still awaiting confirmation.
	ErrTransitionPending = errors.New("another transition is awaiting confirmation")

	// ErrNoPreviousEntry is returned when moving back past the first entry.
	ErrNoPreviousEntry = errors.New("no previous entry")

	// ErrNoNextEntry is returned when moving forward past the last entry.
	ErrNoNextEntry = errors.New("no next entry")
)

// Transition describes a navigation that is about to be committed.
type Transition struct {
	// From is the current location.
	From Location

	// To is the location that will become current if the transition commits.
	To Location
}

// TransitionHook is consulted before a transition is committed.
//
// A hook returns a non-empty message to require user confirmation, or ""
// to let the transition through. Hooks run in registration order and the
// first non-empty message wins; the remaining hooks are not consulted.
// A hook that panics is treated as returning "".
type TransitionHook func(t Transition) string

// Listener is called with the new location after every committed
// transition.
type Listener func(loc Location)

type hookEntry struct {
	id   uint64
	hook TransitionHook
}

type listenerEntry struct {
	id       uint64
	listener Listener
}

// History tracks the navigation history of a single session.
//
// History owns the current [Location] and an ordered stack of entries with
// a current index. Navigation operations run the transition-confirmation
// protocol before mutating anything:
//
//  1. Every [TransitionHook] is consulted in order until one returns a message.
//  2. If a message was returned, the configured [ConfirmFunc] is asked once.
//  3. On approval the entry stack is updated and every [Listener] is called
//     with the new location, in registration order.
//
// History is safe for concurrent use. Only one transition can await
// confirmation at a time; concurrent navigation calls fail with
// [ErrTransitionPending]. Listeners may navigate from inside a
// notification: the nested commit is delivered after the current round
// completes, so all listeners observe commits in commit order.
//
// Create a History with [New]; there is no package-level default instance.
type History struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	current   Location
	hooks     []hookEntry
	listeners []listenerEntry
	pending   bool
	queue     []Location
	notifying bool
	nextID    atomic.Uint64

	confirm    ConfirmFunc
	keyFunc    func() string
	maxEntries int
	logger     *slog.Logger
	journal    journal.Journal
}

// New creates a [History] positioned on a single initial entry.
//
// The initial entry uses the path from [WithInitialPath] (default "/"),
// the state from [WithInitialState] and navigation type [Pop]. No listener
// is notified for it.
//
// Example:
//
//	h, err := waypoint.New(waypoint.WithInitialPath("/inbox"))
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	unlisten := h.Listen(func(loc waypoint.Location) {
//	    render(loc.Pathname)
//	})
//	defer unlisten()
//
//	err = h.PushState(ctx, map[string]any{"id": 7}, "/messages?id=7")
func New(opts ...Option) (*History, error) {
	cfg := &historyConfig{
		confirm:     AlwaysConfirm,
		initialPath: defaultInitialPath,
		keyFunc:     uuid.NewString,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &History{
		confirm:    cfg.confirm,
		keyFunc:    cfg.keyFunc,
		maxEntries: cfg.maxEntries,
		logger:     logger,
	}

	for _, hook := range cfg.hooks {
		h.hooks = append(h.hooks, hookEntry{id: h.nextID.Inc(), hook: hook})
	}

	initial, err := h.newLocation(cfg.initialState, cfg.initialPath, Pop)
	if err != nil {
		return nil, err
	}
	h.entries = []Location{initial}
	h.current = initial

	j, err := openJournal(cfg)
	if err != nil {
		return nil, err
	}
	h.journal = j
	h.record(initial)

	return h, nil
}

// Close releases the history's journal. The history must not be used
// afterwards.
func (h *History) Close() error {
	return h.journal.Close()
}

// Location returns the current location.
func (h *History) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Entries returns a copy of the entry stack, oldest first.
func (h *History) Entries() []Location {
	h.mu.Lock()
	defer h.mu.Unlock()

	cp := make([]Location, len(h.entries))
	copy(cp, h.entries)
	return cp
}

// Index returns the position of the current entry in [History.Entries].
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// CanGoBack reports whether there is an entry before the current one.
func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanGoForward reports whether there is an entry after the current one.
func (h *History) CanGoForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// PushState navigates to path, adding a new entry after the current one.
//
// Entries after the current one are discarded. The new location carries
// state exactly as given and navigation type [Push].
//
// Returns [ErrInvalidPath] for a malformed path, [ErrTransitionCancelled]
// if the user declined, and [ErrTransitionPending] if another transition
// is awaiting confirmation. The current location is unchanged on error.
func (h *History) PushState(ctx context.Context, state any, path string) error {
	loc, err := h.newLocation(state, path, Push)
	if err != nil {
		return err
	}

	return h.transition(ctx, func() (Location, func(), error) {
		return loc, func() {
			h.entries = append(h.entries[:h.index+1:h.index+1], loc)
			h.index = len(h.entries) - 1
			h.trim()
		}, nil
	})
}

// ReplaceState navigates to path, replacing the current entry.
//
// The new location carries state exactly as given and navigation type
// [Replace]. Errors are as for [History.PushState].
func (h *History) ReplaceState(ctx context.Context, state any, path string) error {
	loc, err := h.newLocation(state, path, Replace)
	if err != nil {
		return err
	}

	return h.transition(ctx, func() (Location, func(), error) {
		return loc, func() {
			h.entries[h.index] = loc
		}, nil
	})
}

// GoBack moves to the previous entry.
//
// The restored location keeps the entry's key, state and path and is
// tagged [Pop]. Returns [ErrNoPreviousEntry] on the first entry.
func (h *History) GoBack(ctx context.Context) error {
	return h.Go(ctx, -1)
}

// GoForward moves to the next entry.
// Returns [ErrNoNextEntry] on the last entry.
func (h *History) GoForward(ctx context.Context) error {
	return h.Go(ctx, 1)
}

// Go moves n entries through the stack: back for negative n, forward for
// positive n. Go with n == 0 does nothing.
//
// Returns [ErrNoPreviousEntry] or [ErrNoNextEntry] if the target lies
// outside the stack; the current location is unchanged.
func (h *History) Go(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}

	return h.transition(ctx, func() (Location, func(), error) {
		// compare before adding so huge n cannot overflow
		if n < -h.index {
			return Location{}, nil, ErrNoPreviousEntry
		}
		if n > len(h.entries)-1-h.index {
			return Location{}, nil, ErrNoNextEntry
		}
		target := h.index + n

		loc := h.entries[target]
		loc.NavigationType = Pop
		return loc, func() {
			h.index = target
		}, nil
	})
}

// RegisterTransitionHook adds hook to the end of the hook list.
//
// The returned function removes exactly this hook; calling it more than
// once is a no-op. A nil hook registers nothing.
func (h *History) RegisterTransitionHook(hook TransitionHook) (unregister func()) {
	if hook == nil {
		return func() {}
	}

	id := h.nextID.Inc()
	h.mu.Lock()
	h.hooks = append(h.hooks, hookEntry{id: id, hook: hook})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, e := range h.hooks {
			if e.id == id {
				h.hooks = append(h.hooks[:i:i], h.hooks[i+1:]...)
				return
			}
		}
	}
}

// Listen subscribes listener to committed transitions.
//
// The listener is not called on subscription. The returned function
// removes exactly this listener; calling it more than once is a no-op.
// A nil listener subscribes nothing.
//
// Listeners run synchronously on the goroutine that delivers
// notifications, which is normally the one that committed the transition.
// A commit made while another goroutine is still delivering, whether from
// inside a listener or concurrently, is queued and delivered by that
// goroutine after its current round; the committing call then returns
// before its listeners have run. A panicking listener is logged and does
// not prevent the remaining listeners from being called.
func (h *History) Listen(listener Listener) (unlisten func()) {
	if listener == nil {
		return func() {}
	}

	id := h.nextID.Inc()
	h.mu.Lock()
	h.listeners = append(h.listeners, listenerEntry{id: id, listener: listener})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, e := range h.listeners {
			if e.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// transition runs the confirmation protocol for the navigation described
// by plan. plan runs under h.mu and returns the target location and a
// commit function, which also runs under h.mu.
func (h *History) transition(ctx context.Context, plan func() (Location, func(), error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	if h.pending {
		h.mu.Unlock()
		return ErrTransitionPending
	}
	to, commit, err := plan()
	if err != nil {
		h.mu.Unlock()
		return err
	}
	tr := Transition{From: h.current, To: to}
	hooks := make([]hookEntry, len(h.hooks))
	copy(hooks, h.hooks)
	h.pending = true
	h.mu.Unlock()

	if err := h.confirmTransition(ctx, tr, hooks); err != nil {
		h.mu.Lock()
		h.pending = false
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	commit()
	h.current = to
	h.pending = false
	h.queue = append(h.queue, to)
	if h.notifying {
		// an outer notification round delivers it
		h.mu.Unlock()
		return nil
	}
	h.notifying = true
	h.mu.Unlock()

	h.drain()
	return nil
}

// confirmTransition consults the hooks and, if one of them returns a
// message, asks the confirmation strategy.
func (h *History) confirmTransition(ctx context.Context, tr Transition, hooks []hookEntry) error {
	var message string
	for _, e := range hooks {
		if message = h.invokeHookSafe(e.hook, tr); message != "" {
			break
		}
	}
	if message == "" {
		return nil
	}

	ok, err := h.invokeConfirmSafe(ctx, message, tr)
	if err != nil {
		return fmt.Errorf("confirming transition to %s: %w", tr.To.Path(), err)
	}
	if !ok {
		h.logger.Info("transition cancelled",
			"navigation_type", tr.To.NavigationType,
			"from", tr.From.Path(),
			"to", tr.To.Path(),
		)
		return ErrTransitionCancelled
	}
	return nil
}

// drain delivers queued commits to listeners until the queue is empty.
func (h *History) drain() {
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.notifying = false
			h.mu.Unlock()
			return
		}
		loc := h.queue[0]
		h.queue = h.queue[1:]
		listeners := make([]listenerEntry, len(h.listeners))
		copy(listeners, h.listeners)
		h.mu.Unlock()

		h.logger.Debug("transition committed",
			"navigation_type", loc.NavigationType,
			"path", loc.Path(),
			"key", loc.Key,
		)
		h.record(loc)

		for _, e := range listeners {
			h.invokeListenerSafe(e.listener, loc)
		}
	}
}

// trim drops the oldest entries beyond maxEntries. Called under h.mu.
func (h *History) trim() {
	if h.maxEntries <= 0 || len(h.entries) <= h.maxEntries {
		return
	}
	drop := len(h.entries) - h.maxEntries
	h.entries = append([]Location(nil), h.entries[drop:]...)
	h.index -= drop
}

func (h *History) newLocation(state any, path string, nt NavigationType) (Location, error) {
	parts, err := ParsePath(path)
	if err != nil {
		return Location{}, err
	}

	key := h.keyFunc()
	if key == "" {
		return Location{}, errors.New("key function returned an empty key")
	}

	return Location{
		Key:            key,
		State:          state,
		Pathname:       parts.Pathname,
		Search:         parts.Search,
		Hash:           parts.Hash,
		NavigationType: nt,
	}, nil
}

// invokeHookSafe calls a transition hook with panic recovery.
// A panicking hook counts as not asking for confirmation.
func (h *History) invokeHookSafe(hook TransitionHook, tr Transition) (message string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("transition hook panicked",
				"panic", r,
				"to", tr.To.Path(),
			)
			message = ""
		}
	}()
	return hook(tr)
}

// invokeConfirmSafe asks the confirmation strategy with panic recovery.
// A panic aborts the transition with an error.
func (h *History) invokeConfirmSafe(ctx context.Context, message string, tr Transition) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("confirmation panicked",
				"panic", r,
				"to", tr.To.Path(),
			)
			ok, err = false, fmt.Errorf("confirmation panicked: %v", r)
		}
	}()
	return h.confirm(ctx, message)
}

// invokeListenerSafe calls a listener with panic recovery.
// Panics are logged but do not propagate.
func (h *History) invokeListenerSafe(l Listener, loc Location) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("listener panicked",
				"panic", r,
				"path", loc.Path(),
				"key", loc.Key,
			)
		}
	}()
	l(loc)
}
