package config

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jpalmerr/waypoint"
)

// BuildOptions converts parsed configuration into SDK options.
//
// prompt is the confirmation strategy used when Confirm is "prompt"; it
// may be nil for the other modes. Guards become transition hooks in file
// order.
func BuildOptions(cfg *Config, prompt waypoint.ConfirmFunc) ([]waypoint.Option, error) {
	opts := []waypoint.Option{
		waypoint.WithInitialPath(cfg.InitialPath),
	}

	if cfg.MaxEntries > 0 {
		opts = append(opts, waypoint.WithMaxEntries(cfg.MaxEntries))
	}

	confirm, err := buildConfirm(cfg, prompt)
	if err != nil {
		return nil, err
	}
	opts = append(opts, waypoint.WithUserConfirmation(confirm))

	if cfg.Journal.Driver == DriverSQLite {
		opts = append(opts, waypoint.WithJournalFile(cfg.Journal.Path))
	}
	if cfg.Journal.Capacity > 0 {
		opts = append(opts, waypoint.WithJournalCapacity(cfg.Journal.Capacity))
	}

	for _, g := range cfg.Guards {
		opts = append(opts, waypoint.WithTransitionHook(buildGuard(g)))
	}

	return opts, nil
}

// buildConfirm selects the confirmation strategy for the configured mode.
func buildConfirm(cfg *Config, prompt waypoint.ConfirmFunc) (waypoint.ConfirmFunc, error) {
	switch cfg.Confirm {
	case ConfirmNever:
		return waypoint.NeverConfirm, nil
	case ConfirmPrompt:
		if prompt == nil {
			return nil, errors.New("confirm mode prompt requires an interactive prompt")
		}
		if timeout := cfg.ConfirmTimeout.Duration(); timeout > 0 {
			return withTimeout(prompt, timeout), nil
		}
		return prompt, nil
	default:
		return waypoint.AlwaysConfirm, nil
	}
}

// withTimeout bounds each confirmation by timeout.
func withTimeout(confirm waypoint.ConfirmFunc, timeout time.Duration) waypoint.ConfirmFunc {
	return func(ctx context.Context, message string) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return confirm(ctx, message)
	}
}

// buildGuard turns a guard definition into a transition hook.
func buildGuard(g GuardConfig) waypoint.TransitionHook {
	return func(t waypoint.Transition) string {
		if !strings.HasPrefix(t.From.Pathname, g.Prefix) || strings.HasPrefix(t.To.Pathname, g.Prefix) {
			return ""
		}
		if g.StatePath != "" && !stateFlag(t.From.State, g.StatePath) {
			return ""
		}
		return g.Message
	}
}

// stateFlag reports whether state holds a truthy value at the gjson path.
// State that is already JSON is queried as is.
func stateFlag(state any, path string) bool {
	if state == nil {
		return false
	}

	var data []byte
	switch s := state.(type) {
	case json.RawMessage:
		data = s
	case []byte:
		data = s
	default:
		encoded, err := json.Marshal(state)
		if err != nil {
			return false
		}
		data = encoded
	}

	return gjson.GetBytes(data, path).Bool()
}
