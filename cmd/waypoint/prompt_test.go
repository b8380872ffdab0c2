package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPromptConfirm_Answers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"full yes", "Yes\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
		{"yes without newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirm := promptConfirm(strings.NewReader(tt.input), &out)

			got, err := confirm(context.Background(), "Leave?")
			if err != nil {
				t.Fatalf("confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Leave? [y/N]") {
				t.Errorf("prompt output = %q", out.String())
			}
		})
	}
}

func TestPromptConfirm_Sequence(t *testing.T) {
	confirm := promptConfirm(strings.NewReader("n\ny\n"), io.Discard)
	ctx := context.Background()

	for i, want := range []bool{false, true, false} {
		got, err := confirm(ctx, "Leave?")
		if err != nil {
			t.Fatalf("confirm() #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("confirm() #%d = %v, want %v", i, got, want)
		}
	}
}

func TestPromptConfirm_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	confirm := promptConfirm(r, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := confirm(ctx, "Leave?")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("confirm() error = %v, want context.DeadlineExceeded", err)
	}

	// the answer typed after the timeout goes to the next prompt
	go func() { _, _ = w.Write([]byte("y\n")) }()
	got, err := confirm(context.Background(), "Leave?")
	if err != nil || !got {
		t.Errorf("confirm() = %v, %v; want true, nil", got, err)
	}
}
