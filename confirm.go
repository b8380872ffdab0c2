package waypoint

import (
	"context"
	"sync"
)

// ConfirmFunc asks the user whether a pending transition may proceed.
//
// ConfirmFunc is invoked at most once per pending transition, with the
// message returned by the first [TransitionHook] that asked for
// confirmation. It blocks until the user answers: true commits the
// transition, false cancels it. A non-nil error aborts the transition and
// is returned to the navigation caller.
//
// Implementations should honour ctx cancellation.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

// AlwaysConfirm approves every transition without asking.
// It is the default when no [WithUserConfirmation] option is given.
func AlwaysConfirm(context.Context, string) (bool, error) {
	return true, nil
}

// NeverConfirm rejects every transition that asks for confirmation.
func NeverConfirm(context.Context, string) (bool, error) {
	return false, nil
}

// CallbackConfirmation adapts a callback-style confirmation strategy into
// a [ConfirmFunc].
//
// fn receives the message and a single-shot callback. The callback may be
// invoked synchronously or from another goroutine. Only the first
// invocation counts; later ones are ignored, so a transition can never be
// committed twice. If fn never invokes the callback, the transition stays
// pending until ctx is done.
//
// Example:
//
//	confirm := waypoint.CallbackConfirmation(func(message string, callback func(bool)) {
//	    go func() { callback(dialog.Ask(message)) }()
//	})
func CallbackConfirmation(fn func(message string, callback func(ok bool))) ConfirmFunc {
	return func(ctx context.Context, message string) (bool, error) {
		answer := make(chan bool, 1)
		var once sync.Once

		fn(message, func(ok bool) {
			once.Do(func() { answer <- ok })
		})

		select {
		case ok := <-answer:
			return ok, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
