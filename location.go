package waypoint

import (
	"errors"
	"fmt"
	"strings"
)

// NavigationType records how a [Location] was reached.
//
// NavigationType is a string type so that it logs and serializes as the
// literal tags PUSH, REPLACE and POP.
type NavigationType string

const (
	// Push indicates a new entry was added after the current one.
	Push NavigationType = "PUSH"

	// Replace indicates the current entry was replaced in place.
	Replace NavigationType = "REPLACE"

	// Pop indicates an existing entry was revisited, either as the
	// initial location or by moving back or forward.
	Pop NavigationType = "POP"
)

// String returns the navigation type tag.
func (n NavigationType) String() string {
	return string(n)
}

// ErrInvalidPath is returned when a path cannot be turned into a [Location].
var ErrInvalidPath = errors.New("invalid path")

// Location is an immutable snapshot of one navigation state.
//
// Locations are created by [History] and handed to listeners and hooks by
// value. State is stored exactly as passed to [History.PushState] or
// [History.ReplaceState]; callers should not mutate it afterwards.
type Location struct {
	// Key uniquely identifies the location within a session.
	Key string

	// State is the caller-supplied payload, or nil.
	State any

	// Pathname is the path component, always starting with "/".
	Pathname string

	// Search is the query component including the leading "?", or "".
	Search string

	// Hash is the fragment component including the leading "#", or "".
	Hash string

	// NavigationType records how the location was reached.
	NavigationType NavigationType
}

// Path returns the location's pathname, search and hash joined together.
func (l Location) Path() string {
	return l.Pathname + l.Search + l.Hash
}

// PathParts holds the components of a parsed path.
type PathParts struct {
	Pathname string
	Search   string
	Hash     string
}

// ParsePath splits path into pathname, search and hash.
//
// The path must start with "/". A bare "?" or "#" is dropped, so
// "/home?" parses to pathname "/home" with an empty search.
//
// Example:
//
//	parts, _ := waypoint.ParsePath("/home?the=query#top")
//	// parts.Pathname == "/home", parts.Search == "?the=query", parts.Hash == "#top"
func ParsePath(path string) (PathParts, error) {
	if path == "" {
		return PathParts{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if !strings.HasPrefix(path, "/") {
		return PathParts{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPath, path)
	}

	var parts PathParts
	rest := path

	if idx := strings.IndexByte(rest, '#'); idx != -1 {
		parts.Hash = rest[idx:]
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, '?'); idx != -1 {
		parts.Search = rest[idx:]
		rest = rest[:idx]
	}
	parts.Pathname = rest

	if parts.Search == "?" {
		parts.Search = ""
	}
	if parts.Hash == "#" {
		parts.Hash = ""
	}

	return parts, nil
}

// CreatePath joins parsed components back into a path string.
func CreatePath(parts PathParts) string {
	return parts.Pathname + parts.Search + parts.Hash
}
