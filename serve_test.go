package waypoint

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/waypoint/internal/server"
)

func TestServe_InvalidPort(t *testing.T) {
	h := newTestHistory(t)

	for _, port := range []int{0, -1, 70000} {
		if err := h.Serve(context.Background(), port); err == nil {
			t.Errorf("Serve(%d) expected error, got nil", port)
		}
	}
}

func TestServe_CancelledContextReturnsImmediately(t *testing.T) {
	h := newTestHistory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Serve(ctx, 8080); err != nil {
		t.Errorf("Serve() with cancelled context error = %v", err)
	}
}

func TestServe_ExposesLocation(t *testing.T) {
	h := newTestHistory(t, WithInitialPath("/served"))

	// reserve a free port, then release it for the inspector
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx, port) }()
	defer func() {
		cancel()
		<-done
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/location"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["pathname"] != "/served" {
		t.Errorf("pathname = %v, want /served", got["pathname"])
	}

	page, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer page.Body.Close()
	if page.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", page.StatusCode)
	}
	if ct := page.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("GET / Content-Type = %q, want text/html", ct)
	}
}

func TestNavigator_Snapshot(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	_ = h.PushState(ctx, map[string]any{"the": "state"}, "/home?the=query")
	_ = h.PushState(ctx, nil, "/next")
	_ = h.GoBack(ctx)

	snap := navigator{h}.Snapshot()
	if snap.Index != 1 || len(snap.Entries) != 3 {
		t.Fatalf("snapshot = %d entries at %d, want 3 at 1", len(snap.Entries), snap.Index)
	}
	if snap.Current.Pathname != "/home" || snap.Current.NavigationType != "POP" {
		t.Errorf("Current = %+v, want /home tagged POP", snap.Current)
	}
	if string(snap.Current.State) != `{"the":"state"}` {
		t.Errorf("Current.State = %s", snap.Current.State)
	}
	if snap.Entries[1].NavigationType != "PUSH" {
		t.Errorf("stored entry type = %q, want PUSH", snap.Entries[1].NavigationType)
	}
}

func TestNavigator_Navigate(t *testing.T) {
	h := newTestHistory(t)
	nav := navigator{h}
	ctx := context.Background()

	err := nav.Navigate(ctx, server.Command{Action: "push", Path: "/home?the=query", State: json.RawMessage(`{"the":"state"}`)})
	if err != nil {
		t.Fatalf("Navigate(push) error = %v", err)
	}
	loc := h.Location()
	if loc.Path() != "/home?the=query" || loc.NavigationType != Push {
		t.Errorf("Location() = %+v", loc)
	}
	if !reflect.DeepEqual(loc.State, map[string]any{"the": "state"}) {
		t.Errorf("State = %#v", loc.State)
	}

	if err := nav.Navigate(ctx, server.Command{Action: "replace", Path: "/feed"}); err != nil {
		t.Fatalf("Navigate(replace) error = %v", err)
	}
	if h.Location().State != nil {
		t.Errorf("State = %#v, want nil without state", h.Location().State)
	}

	if err := nav.Navigate(ctx, server.Command{Action: "back"}); err != nil {
		t.Fatalf("Navigate(back) error = %v", err)
	}
	if err := nav.Navigate(ctx, server.Command{Action: "forward"}); err != nil {
		t.Fatalf("Navigate(forward) error = %v", err)
	}
	if h.Location().Pathname != "/feed" {
		t.Errorf("Pathname = %q, want /feed", h.Location().Pathname)
	}
}

func TestNavigator_ErrorMapping(t *testing.T) {
	h := newTestHistory(t,
		WithUserConfirmation(NeverConfirm),
		WithTransitionHook(func(tr Transition) string {
			if tr.To.Pathname == "/guarded" {
				return "sure?"
			}
			return ""
		}),
	)
	nav := navigator{h}
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  server.Command
		want error
	}{
		{"unknown action", server.Command{Action: "sideways"}, server.ErrInvalid},
		{"bad path", server.Command{Action: "push", Path: "nope"}, server.ErrInvalid},
		{"bad state", server.Command{Action: "push", Path: "/a", State: json.RawMessage(`{`)}, server.ErrInvalid},
		{"cancelled", server.Command{Action: "push", Path: "/guarded"}, server.ErrRejected},
		{"no previous", server.Command{Action: "back"}, server.ErrRejected},
		{"no next", server.Command{Action: "forward"}, server.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := nav.Navigate(ctx, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Errorf("Navigate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
