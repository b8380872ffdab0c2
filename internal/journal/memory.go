package journal

import (
	"sync"
)

// DefaultCapacity is the number of records a [MemoryJournal] keeps when
// no capacity is given.
const DefaultCapacity = 1000

// MemoryJournal is an in-memory implementation of [Journal].
//
// MemoryJournal keeps at most capacity records; once full, the oldest
// record is evicted on every append. Seq keeps increasing across evictions.
type MemoryJournal struct {
	mu       sync.RWMutex
	records  []Record
	latest   map[string]Record
	capacity int
	seq      int64
	hub      *hub
}

// NewMemoryJournal creates a new in-memory [Journal].
//
// A capacity of zero or less selects [DefaultCapacity].
func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryJournal{
		latest:   make(map[string]Record),
		capacity: capacity,
		hub:      newHub(),
	}
}

// Append stores rec and notifies all subscribers. It never fails.
func (m *MemoryJournal) Append(rec Record) (Record, error) {
	m.mu.Lock()
	m.seq++
	rec.Seq = m.seq
	m.records = append(m.records, rec)
	m.latest[rec.Key] = rec

	if len(m.records) > m.capacity {
		evicted := m.records[0]
		m.records = append([]Record(nil), m.records[1:]...)
		// a later record may share the key (POP re-commits an entry)
		if cur, ok := m.latest[evicted.Key]; ok && cur.Seq == evicted.Seq {
			delete(m.latest, evicted.Key)
		}
	}
	m.mu.Unlock()

	m.hub.publish(rec)
	return rec, nil
}

// Records returns a copy of the retained records, oldest first.
func (m *MemoryJournal) Records() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Lookup returns the most recent retained record with the given key.
func (m *MemoryJournal) Lookup(key string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.latest[key]
	return rec, ok, nil
}

// Subscribe creates a new subscription.
//
// The returned channel has a buffer of 100 records. If the buffer fills,
// new records are dropped for this subscriber.
func (m *MemoryJournal) Subscribe() <-chan Record {
	return m.hub.subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryJournal) Unsubscribe(ch <-chan Record) {
	m.hub.unsubscribe(ch)
}

// Close closes all subscriber channels.
func (m *MemoryJournal) Close() error {
	m.hub.closeAll()
	return nil
}
