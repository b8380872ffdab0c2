package waypoint

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer h.Close()

	if h.Location().Pathname != "/" {
		t.Errorf("initial Pathname = %q, want /", h.Location().Pathname)
	}
	if h.maxEntries != 0 {
		t.Errorf("maxEntries = %d, want unbounded", h.maxEntries)
	}
	if h.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestOptions_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{"nil confirmation", WithUserConfirmation(nil), "confirmation function cannot be nil"},
		{"relative initial path", WithInitialPath("home"), "initial path"},
		{"empty initial path", WithInitialPath(""), "initial path"},
		{"nil key func", WithKeyFunc(nil), "key function cannot be nil"},
		{"zero max entries", WithMaxEntries(0), "max entries must be positive"},
		{"negative max entries", WithMaxEntries(-3), "max entries must be positive"},
		{"nil logger", WithLogger(nil), "logger cannot be nil"},
		{"empty journal file", WithJournalFile(""), "journal path cannot be empty"},
		{"zero journal capacity", WithJournalCapacity(0), "journal capacity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithTransitionHook_NilIgnored(t *testing.T) {
	h, err := New(WithTransitionHook(nil), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer h.Close()

	if len(h.hooks) != 0 {
		t.Errorf("len(hooks) = %d, want 0", len(h.hooks))
	}
}

func TestWithLogger_ReceivesCancellations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h, err := New(
		WithLogger(logger),
		WithUserConfirmation(NeverConfirm),
		WithTransitionHook(func(Transition) string { return "stay?" }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer h.Close()

	_ = h.PushState(context.Background(), nil, "/away")

	if !strings.Contains(buf.String(), "transition cancelled") {
		t.Errorf("expected cancellation log, got: %s", buf.String())
	}
}

func TestWithJournalFile_PersistsCommits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	h, err := New(WithJournalFile(path), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := h.PushState(context.Background(), map[string]any{"n": 1}, "/saved"); err != nil {
		t.Fatalf("PushState() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(WithJournalFile(path), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close()

	commits, err := reopened.Commits()
	if err != nil {
		t.Fatalf("Commits() error = %v", err)
	}

	// first session: initial + push; second session: initial
	if len(commits) != 3 {
		t.Fatalf("len(Commits()) = %d, want 3", len(commits))
	}
	if commits[1].Location.Pathname != "/saved" {
		t.Errorf("commits[1].Pathname = %q, want /saved", commits[1].Location.Pathname)
	}
}

func TestWithJournalCapacity_BoundsMemoryJournal(t *testing.T) {
	h, err := New(WithJournalCapacity(2), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer h.Close()

	ctx := context.Background()
	_ = h.PushState(ctx, nil, "/a")
	_ = h.PushState(ctx, nil, "/b")

	commits, _ := h.Commits()
	if len(commits) != 2 {
		t.Fatalf("len(Commits()) = %d, want 2", len(commits))
	}
	if commits[0].Location.Pathname != "/a" {
		t.Errorf("oldest kept commit = %q, want /a", commits[0].Location.Pathname)
	}
}
