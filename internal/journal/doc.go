// Package journal records every committed navigation as an append-only log.
//
// This package is internal to Waypoint. A [Journal] receives one [Record]
// per committed location, in commit order, and fans new records out to
// subscribers for live consumers such as the inspector's SSE stream.
//
// The main components are:
//
//   - [Journal]: Interface defining append, query and subscription operations
//   - [MemoryJournal]: Bounded in-memory implementation
//   - [SQLiteJournal]: Persistent implementation backed by SQLite
//   - [Record]: Storage representation of a committed location
//
// Subscribers receive records via buffered channels with non-blocking sends;
// slow subscribers miss records rather than block navigation.
package journal
