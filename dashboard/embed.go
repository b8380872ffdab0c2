// Package dashboard provides the embedded inspector page for Waypoint.
//
// The page is compiled into the binary with Go's embed directive, so the
// inspector needs no external asset files. It is served at "/" by
// [github.com/jpalmerr/waypoint.History.Serve] and renders the entry stack,
// the live commit stream from /api/sse, and a form that posts to
// /api/navigate.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the inspector page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Inspector page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
