// Package source defines the contract for fetching/unpacking a declared
// source into a directory (spec §4.4), and a registry resolving handlers by
// explicit source-type or by pattern auto-detection.
package source

import (
	"context"
)

// Refinement carries the type-specific fields from a part's Source
// descriptor (spec §3) that a handler needs to populate a directory.
type Refinement struct {
	Location   string
	Branch     string
	Tag        string
	Commit     string
	Depth      int
	Subdir     string
	Submodules bool
	Checksum   string
	Channel    string
}

// Handler fetches or unpacks a declared source into a destination
// directory. Handlers are pure with respect to engine state: they report
// failures through typed errors the executor classifies, and never touch
// state files or migration tracking themselves (spec §4.4).
type Handler interface {
	// Pull populates dest with the source content.
	Pull(ctx context.Context, dest string, ref Refinement) error
}

// Updatable is optionally implemented by handlers whose source kind
// supports in-place refresh without destroying files an override-pull
// scriptlet produced (spec §3 Action: UPDATE; spec §4.4: "for local
// sources, support UPDATE semantics").
type Updatable interface {
	Handler
	// Update incrementally re-syncs dest from the source without deleting
	// files not tracked by the source itself.
	Update(ctx context.Context, dest string, ref Refinement) error
}
