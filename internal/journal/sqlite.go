package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// defaultLookupCache is the number of keys cached by [SQLiteJournal.Lookup].
const defaultLookupCache = 256

// SQLiteJournal is a persistent implementation of [Journal].
//
// Records survive process restarts; Seq continues from the highest stored
// value. Lookups are served from an LRU cache that Append keeps current.
type SQLiteJournal struct {
	conn  *sql.DB
	path  string
	cache *lru.Cache[string, Record]
	hub   *hub
}

// OpenSQLite opens (or creates) a journal database at path.
//
// Parent directories are created as needed. cacheSize bounds the lookup
// cache; zero or less selects a default of 256 keys.
func OpenSQLite(path string, cacheSize int) (*SQLiteJournal, error) {
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// a single writer keeps Seq assignment and publication in commit order
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if cacheSize <= 0 {
		cacheSize = defaultLookupCache
	}
	cache, err := lru.New[string, Record](cacheSize)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}

	j := &SQLiteJournal{
		conn:  conn,
		path:  path,
		cache: cache,
		hub:   newHub(),
	}

	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return j, nil
}

// Path returns the database file path.
func (j *SQLiteJournal) Path() string {
	return j.path
}

func (j *SQLiteJournal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		key             TEXT    NOT NULL,
		pathname        TEXT    NOT NULL,
		search          TEXT    NOT NULL DEFAULT '',
		hash            TEXT    NOT NULL DEFAULT '',
		navigation_type TEXT    NOT NULL,
		state           TEXT,
		committed_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_key ON records(key, seq DESC);
	`

	_, err := j.conn.Exec(schema)
	return err
}

// Append inserts rec and notifies all subscribers.
func (j *SQLiteJournal) Append(rec Record) (Record, error) {
	var state sql.NullString
	if rec.State != nil {
		state = sql.NullString{String: string(rec.State), Valid: true}
	}

	res, err := j.conn.Exec(
		`INSERT INTO records (key, pathname, search, hash, navigation_type, state, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.Pathname, rec.Search, rec.Hash, rec.NavigationType, state, rec.CommittedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting record: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("reading record seq: %w", err)
	}
	rec.Seq = seq

	j.cache.Add(rec.Key, rec)
	j.hub.publish(rec)
	return rec, nil
}

// Records returns every stored record, oldest first.
func (j *SQLiteJournal) Records() ([]Record, error) {
	rows, err := j.conn.Query(
		`SELECT seq, key, pathname, search, hash, navigation_type, state, committed_at
		 FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Lookup returns the most recent record with the given key.
func (j *SQLiteJournal) Lookup(key string) (Record, bool, error) {
	if rec, ok := j.cache.Get(key); ok {
		return rec, true, nil
	}

	row := j.conn.QueryRow(
		`SELECT seq, key, pathname, search, hash, navigation_type, state, committed_at
		 FROM records WHERE key = ? ORDER BY seq DESC LIMIT 1`, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	j.cache.Add(key, rec)
	return rec, true, nil
}

// Subscribe creates a new subscription. See [MemoryJournal.Subscribe].
func (j *SQLiteJournal) Subscribe() <-chan Record {
	return j.hub.subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
func (j *SQLiteJournal) Unsubscribe(ch <-chan Record) {
	j.hub.unsubscribe(ch)
}

// Close closes all subscriber channels and the database connection.
func (j *SQLiteJournal) Close() error {
	j.hub.closeAll()
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec         Record
		state       sql.NullString
		committedAt int64
	)
	err := s.Scan(&rec.Seq, &rec.Key, &rec.Pathname, &rec.Search, &rec.Hash,
		&rec.NavigationType, &state, &committedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scanning record: %w", err)
	}
	if state.Valid {
		rec.State = json.RawMessage(state.String)
	}
	rec.CommittedAt = time.Unix(0, committedAt)
	return rec, nil
}
