package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpalmerr/waypoint/internal/journal"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	sseWriteTimeout = 5 * time.Second

	// maxNavigateBody caps the size of a navigate request body.
	maxNavigateBody = 1 << 20
)

var (
	// ErrRejected marks a navigation the history refused to commit
	// (cancelled, or another transition pending). Mapped to 409.
	ErrRejected = errors.New("navigation rejected")

	// ErrInvalid marks a malformed navigation request. Mapped to 400.
	ErrInvalid = errors.New("invalid navigation")
)

// Snapshot is the inspector's view of the entry stack.
type Snapshot struct {
	Index   int              `json:"index"`
	Current journal.Record   `json:"current"`
	Entries []journal.Record `json:"entries"`
}

// Command is a remote navigation request.
type Command struct {
	// Action is one of "push", "replace", "back" or "forward".
	Action string `json:"action"`

	// Path is the target path for push and replace.
	Path string `json:"path"`

	// State is the JSON state for push and replace.
	State json.RawMessage `json:"state"`
}

// Navigator is the history surface the inspector drives.
//
// Navigate must wrap refusals with [ErrRejected] and malformed commands
// with [ErrInvalid] so they map to the right status codes.
type Navigator interface {
	Snapshot() Snapshot
	Navigate(ctx context.Context, cmd Command) error
}

// Server handles HTTP requests for the inspector.
//
// Server provides these endpoints:
//   - GET /: Serves the embedded inspector page (when assets are set)
//   - GET /api/location: Current location as JSON
//   - GET /api/entries: Entry stack and current index
//   - GET /api/journal: Journal records
//   - GET /api/journal/{key}: Latest record for a location key
//   - GET /api/sse: Server-Sent Events stream of new journal records
//   - POST /api/navigate: Push, replace, back or forward
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	nav        Navigator
	journal    journal.Journal
	port       int
	httpServer *http.Server
	assets     fs.FS
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - nav: the history being inspected
//   - j: journal backing /api/journal and /api/sse
//   - port: TCP port to listen on
//   - assets: filesystem containing assets/index.html (may be nil)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(nav Navigator, j journal.Journal, port int, assets fs.FS, logger *slog.Logger) *Server {
	return &Server{
		nav:     nav,
		journal: j,
		port:    port,
		assets:  assets,
		logger:  logger,
	}
}

// Handler returns the inspector's request multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/location", s.handleLocation)
	mux.HandleFunc("/api/entries", s.handleEntries)
	mux.HandleFunc("/api/journal", s.handleJournal)
	mux.HandleFunc("GET /api/journal/{key}", s.handleJournalRecord)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/navigate", s.handleNavigate)

	if s.assets != nil {
		mux.HandleFunc("/", s.handleInspector)
	}
	return mux
}

// handleInspector serves the inspector page.
func (s *Server) handleInspector(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Inspector not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write(content); err != nil {
		s.logger.Error("failed to write inspector response", "error", err)
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.nav.Snapshot().Current)
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.nav.Snapshot())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.journal.Records()
	if err != nil {
		s.logger.Error("failed to read journal", "error", err)
		http.Error(w, "Journal unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleJournalRecord returns the most recent record for a location key.
func (s *Server) handleJournalRecord(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	rec, ok, err := s.journal.Lookup(key)
	if err != nil {
		s.logger.Error("failed to look up journal record", "key", key, "error", err)
		http.Error(w, "Journal unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("no record for key %q", key), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// handleNavigate applies a remote navigation and answers with the
// resulting current location.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNavigateBody))
	if err := dec.Decode(&cmd); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.nav.Navigate(r.Context(), cmd); err != nil {
		switch {
		case errors.Is(err, ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrRejected):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			s.logger.Error("navigation failed", "action", cmd.Action, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, s.nav.Snapshot().Current)
}

// handleSSE streams journal records via Server-Sent Events.
//
// Existing records are sent first, then new ones as they are appended.
// Writes carry deadlines so that a slow or disconnected client cannot
// block the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the backlog so no record falls between the two
	ch := s.journal.Subscribe()
	defer s.journal.Unsubscribe(ch)

	backlog, err := s.journal.Records()
	if err != nil {
		s.logger.Warn("sse backlog unavailable", "error", err)
	}
	var lastSeq int64
	for _, rec := range backlog {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
		lastSeq = rec.Seq
	}

	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if rec.Seq <= lastSeq {
				// already sent with the backlog
				continue
			}
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
