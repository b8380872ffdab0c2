package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jpalmerr/waypoint"
)

type answer struct {
	line string
	err  error
}

// promptConfirm returns a confirmation strategy that asks on out and reads
// a yes/no answer from in. End of input counts as a decline.
//
// Lines are read by a single goroutine, started on the first prompt, so a
// prompt abandoned by its context does not lose the next answer.
func promptConfirm(in io.Reader, out io.Writer) waypoint.ConfirmFunc {
	answers := make(chan answer)
	var start sync.Once
	var mu sync.Mutex

	read := func() {
		defer close(answers)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if line != "" || !errors.Is(err, io.EOF) {
					answers <- answer{line, err}
				}
				return
			}
			answers <- answer{line, nil}
		}
	}

	return func(ctx context.Context, message string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()

		start.Do(func() { go read() })
		_, _ = fmt.Fprintf(out, "%s [y/N] ", message)

		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return false, ctx.Err()
		case a, ok := <-answers:
			if !ok {
				return false, nil
			}
			if a.err != nil && !errors.Is(a.err, io.EOF) {
				return false, fmt.Errorf("reading answer: %w", a.err)
			}
			switch strings.ToLower(strings.TrimSpace(a.line)) {
			case "y", "yes":
				return true, nil
			default:
				return false, nil
			}
		}
	}
}
