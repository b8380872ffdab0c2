package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/jpalmerr/waypoint"
)

// replayCmd drives a history through a navigation script.
var replayCmd = &cobra.Command{
	Use:   "replay SCRIPT",
	Short: "Replay a navigation script",
	Long: `Replay a navigation script against a history built from a config file.

Each line of the script is one step:

  push PATH [JSON]     push a new entry, optionally with JSON state
  replace PATH [JSON]  replace the current entry
  back                 go back one entry
  forward              go forward one entry
  go N                 move N entries (negative moves back)
  set KEY JSON         replace the current entry with KEY of its state set
                       to JSON (KEY is a dotted path such as draft.dirty)

Blank lines and lines starting with # are ignored. Every committed
location is printed. Steps that are declined or have nowhere to go are
reported and skipped; any other error stops the replay.

Example:
  waypoint replay -c config.yaml session.nav`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = replayCmd.MarkFlagRequired("config")
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer func() { _ = script.Close() }()

	h, _, err := newHistory(cmd, newLogger())
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	out := cmd.OutOrStdout()
	unlisten := h.Listen(func(loc waypoint.Location) {
		printLocation(out, loc)
	})
	defer unlisten()

	return replay(cmd.Context(), h, script, out)
}

// replay executes the script line by line against h.
func replay(ctx context.Context, h *waypoint.History, script io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var steps, skipped int
	scanner := bufio.NewScanner(script)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		steps++

		err := step(ctx, h, line)
		switch {
		case err == nil:
		case errors.Is(err, waypoint.ErrTransitionCancelled),
			errors.Is(err, waypoint.ErrNoPreviousEntry),
			errors.Is(err, waypoint.ErrNoNextEntry):
			skipped++
			_, _ = fmt.Fprintf(out, "line %d: %s: %v\n", lineNo, line, err)
		default:
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%d steps, %d skipped, at %s\n", steps, skipped, h.Location().Path())
	return nil
}

// step runs a single script line.
func step(ctx context.Context, h *waypoint.History, line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "push", "replace":
		path, rawState, _ := strings.Cut(rest, " ")
		if path == "" {
			return fmt.Errorf("%s requires a path", verb)
		}
		state, err := parseState(strings.TrimSpace(rawState))
		if err != nil {
			return err
		}
		if verb == "push" {
			return h.PushState(ctx, state, path)
		}
		return h.ReplaceState(ctx, state, path)
	case "back":
		return h.GoBack(ctx)
	case "forward":
		return h.GoForward(ctx)
	case "go":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("go requires an integer, got %q", rest)
		}
		return h.Go(ctx, n)
	case "set":
		key, raw, _ := strings.Cut(rest, " ")
		if key == "" || raw == "" {
			return errors.New("set requires a key and a JSON value")
		}
		loc := h.Location()
		state, err := patchState(loc.State, key, strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		return h.ReplaceState(ctx, state, loc.Path())
	default:
		return fmt.Errorf("unknown step %q", verb)
	}
}

func parseState(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	var state any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("invalid state: %w", err)
	}
	return state, nil
}

// patchState returns a copy of state with the value at key set to raw.
func patchState(state any, key, raw string) (any, error) {
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("invalid state: %q is not JSON", raw)
	}

	doc := []byte("{}")
	if state != nil {
		encoded, err := json.Marshal(state)
		if err != nil {
			return nil, fmt.Errorf("encoding state: %w", err)
		}
		doc = encoded
	}

	patched, err := sjson.SetRawBytes(doc, key, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return parseState(string(patched))
}

func printLocation(out io.Writer, loc waypoint.Location) {
	if loc.State == nil {
		_, _ = fmt.Fprintf(out, "%-7s %s\n", loc.NavigationType, loc.Path())
		return
	}
	state, err := json.Marshal(loc.State)
	if err != nil {
		state = []byte("?")
	}
	_, _ = fmt.Fprintf(out, "%-7s %s %s\n", loc.NavigationType, loc.Path(), state)
}
