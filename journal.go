package waypoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jpalmerr/waypoint/internal/journal"
)

// openJournal creates the journal selected by the configuration: SQLite
// when a file was given, memory otherwise.
func openJournal(cfg *historyConfig) (journal.Journal, error) {
	if cfg.journalPath != "" {
		j, err := journal.OpenSQLite(cfg.journalPath, cfg.journalCapacity)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		return j, nil
	}
	return journal.NewMemoryJournal(cfg.journalCapacity), nil
}

// record appends loc to the journal. Journal failures are logged and never
// affect navigation.
func (h *History) record(loc Location) {
	rec := locationToRecord(loc, time.Now())

	if loc.State != nil {
		data, err := json.Marshal(loc.State)
		if err != nil {
			h.logger.Warn("state not recorded in journal",
				"key", loc.Key,
				"error", err.Error(),
			)
		} else {
			rec.State = data
		}
	}

	if _, err := h.journal.Append(rec); err != nil {
		h.logger.Error("failed to append journal record",
			"key", loc.Key,
			"path", loc.Path(),
			"error", err.Error(),
		)
	}
}

// locationToRecord converts a location to its journal representation,
// without the state payload.
func locationToRecord(loc Location, at time.Time) journal.Record {
	return journal.Record{
		Key:            loc.Key,
		Pathname:       loc.Pathname,
		Search:         loc.Search,
		Hash:           loc.Hash,
		NavigationType: loc.NavigationType.String(),
		CommittedAt:    at,
	}
}

// Commit is one entry of the commit journal.
type Commit struct {
	// Seq is the position of the commit in the journal.
	Seq int64

	// Location is the committed location. Its State holds the JSON
	// encoding of the original state as a [json.RawMessage], or nil.
	Location Location

	// CommittedAt is when the transition was committed.
	CommittedAt time.Time
}

// Commits returns the commit journal, oldest first.
//
// The journal starts with the initial entry and grows by one commit per
// committed transition. The in-memory journal keeps the most recent
// commits only; see [WithJournalCapacity].
func (h *History) Commits() ([]Commit, error) {
	records, err := h.journal.Records()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	commits := make([]Commit, len(records))
	for i, rec := range records {
		commits[i] = recordToCommit(rec)
	}
	return commits, nil
}

// Commit returns the most recent commit of the location with the given
// key. ok is false when the journal holds no such commit, for example
// because the in-memory journal already evicted it.
func (h *History) Commit(key string) (c Commit, ok bool, err error) {
	rec, ok, err := h.journal.Lookup(key)
	if err != nil {
		return Commit{}, false, fmt.Errorf("failed to read journal: %w", err)
	}
	if !ok {
		return Commit{}, false, nil
	}
	return recordToCommit(rec), true, nil
}

func recordToCommit(rec journal.Record) Commit {
	loc := Location{
		Key:            rec.Key,
		Pathname:       rec.Pathname,
		Search:         rec.Search,
		Hash:           rec.Hash,
		NavigationType: NavigationType(rec.NavigationType),
	}
	if rec.State != nil {
		loc.State = rec.State
	}
	return Commit{
		Seq:         rec.Seq,
		Location:    loc,
		CommittedAt: rec.CommittedAt,
	}
}
