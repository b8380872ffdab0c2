package journal

import (
	"encoding/json"
	"time"
)

// Record is the storage representation of a committed location.
//
// Record is decoupled from the public Location type so that the state
// payload travels as JSON and can be persisted or streamed unchanged.
type Record struct {
	// Seq is the position of the record in the journal, assigned on Append.
	Seq int64 `json:"seq"`

	// Key is the location's unique key.
	Key string `json:"key"`

	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	Hash     string `json:"hash"`

	// NavigationType is PUSH, REPLACE or POP.
	NavigationType string `json:"navigation_type"`

	// State is the JSON encoding of the location state.
	// nil when the location carries no state or the state is not encodable.
	State json.RawMessage `json:"state,omitempty"`

	// CommittedAt is when the navigation was committed.
	CommittedAt time.Time `json:"committed_at"`
}

// Journal defines the interface for recording and subscribing to commits.
//
// Journal implementations must be safe for concurrent access.
type Journal interface {
	// Append stores rec, assigns its Seq and notifies all subscribers.
	Append(rec Record) (Record, error)

	// Records returns the stored records ordered by Seq.
	Records() ([]Record, error)

	// Lookup returns the most recent record with the given key.
	Lookup(key string) (Record, bool, error)

	// Subscribe returns a channel that receives appended records.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Record

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Record)

	// Close releases resources held by the journal and closes all
	// subscriber channels.
	Close() error
}
