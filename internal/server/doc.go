// Package server provides the HTTP inspector for a Waypoint history.
//
// This package is internal to Waypoint and handles all HTTP concerns:
//
//   - Snapshot API: current location at "/api/location", entry stack at "/api/entries"
//   - Journal API: committed locations at "/api/journal", one key at "/api/journal/{key}"
//   - Server-Sent Events: live commits at "/api/sse"
//   - Remote navigation: "POST /api/navigate"
//   - Inspector page: embedded HTML at "/"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the waypoint library should not need to interact with this
// package directly. The server is started by [waypoint.History.Serve].
package server
