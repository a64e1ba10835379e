package domain

import "time"

// SnapshotVersion is bumped whenever the persisted layout changes.
// Snapshots written with another version are discarded on load.
const SnapshotVersion = 3

// SourceSnapshot is the persisted form of a SourceFile.
type SourceSnapshot struct {
	Path         string       `json:"path"`
	Library      Name         `json:"library"`
	Flags        []string     `json:"flags,omitempty"`
	Units        []DesignUnit `json:"units"`
	Dependencies []UnitKey    `json:"dependencies,omitempty"`
	HasPackage   bool         `json:"has_package"`
	ParsedMtime  time.Time    `json:"parsed_mtime"`
}

// Snapshot is the whole persisted project state.
type Snapshot struct {
	SessionID   string           `json:"session_id"`
	ConfigMtime time.Time        `json:"config_mtime"`
	SavedAt     time.Time        `json:"saved_at"`
	Sources     []SourceSnapshot `json:"sources"`
	Cache       []CacheEntry     `json:"cache"`
}
