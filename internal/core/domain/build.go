package domain

import "time"

// BuildRequest is a single compiler invocation.
type BuildRequest struct {
	Library Name
	Path    string
	Flags   []string
}

// BuildResult is what a builder reports for one invocation.
type BuildResult struct {
	Records []Record
	// RebuildHints name units the compiler asked to be recompiled first.
	RebuildHints []UnitKey
}

// CacheEntry is the build cache's memory of the last build of a source.
type CacheEntry struct {
	Path string `json:"path"`
	// SourceMtime is the source mtime observed when the build ran.
	SourceMtime time.Time `json:"source_mtime"`
	// Size is the source size when the build ran. NeverBuilt marks an entry with no usable build.
	Size         int64     `json:"size"`
	BuiltAt      time.Time `json:"built_at"`
	Records      []Record  `json:"records,omitempty"`
	RebuildHints []UnitKey `json:"rebuild_hints,omitempty"`
}

// NeverBuilt is the Size of an entry that must be rebuilt on the next pass.
const NeverBuilt int64 = -1

// Reset returns the entry to the never-built state, keeping the last records for reporting.
func (e *CacheEntry) Reset() {
	e.SourceMtime = time.Time{}
	e.Size = NeverBuilt
}

// IsNeverBuilt reports whether the entry forces a rebuild.
func (e *CacheEntry) IsNeverBuilt() bool {
	return e.Size == NeverBuilt
}
