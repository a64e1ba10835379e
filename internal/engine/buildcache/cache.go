// Package buildcache decides which sources are stale and remembers the outcome of their last build.
package buildcache

import (
	"maps"
	"slices"
	"time"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// Cache holds one entry per built source. It is not safe for concurrent use.
type Cache struct {
	entries      map[string]*domain.CacheEntry
	resetOnError bool
}

// New creates an empty Cache. When resetOnError is set, a build that reports
// errors leaves its source in the never-built state.
func New(resetOnError bool) *Cache {
	return &Cache{
		entries:      make(map[string]*domain.CacheEntry),
		resetOnError: resetOnError,
	}
}

// ShouldBuild reports whether the source at path must be compiled.
//
// A newer mtime alone is not enough: the size must differ as well. Touching a
// file without editing it does not trigger a rebuild.
func (c *Cache) ShouldBuild(path string, stat domain.FileStat, forced bool) bool {
	if forced {
		return true
	}
	entry, ok := c.entries[path]
	if !ok {
		return true
	}
	return stat.Mtime.After(entry.SourceMtime) && stat.Size != entry.Size
}

// Record stores the outcome of a build of path. stat is the source state the
// build ran against. Rebuild hints always reset the entry.
func (c *Cache) Record(path string, stat domain.FileStat, result domain.BuildResult, builtAt time.Time) domain.CacheEntry {
	entry := &domain.CacheEntry{
		Path:         path,
		SourceMtime:  stat.Mtime,
		Size:         stat.Size,
		BuiltAt:      builtAt,
		Records:      slices.Clone(result.Records),
		RebuildHints: slices.Clone(result.RebuildHints),
	}

	if len(result.RebuildHints) > 0 || (c.resetOnError && domain.HasErrors(result.Records)) {
		entry.Reset()
	}

	c.entries[path] = entry
	return *entry
}

// Invalidate puts the entry for path back into the never-built state.
func (c *Cache) Invalidate(path string) {
	if entry, ok := c.entries[path]; ok {
		entry.Reset()
		return
	}
	c.entries[path] = &domain.CacheEntry{Path: path, Size: domain.NeverBuilt}
}

// Entry returns a copy of the entry for path.
func (c *Cache) Entry(path string) (domain.CacheEntry, bool) {
	entry, ok := c.entries[path]
	if !ok {
		return domain.CacheEntry{}, false
	}
	return *entry, true
}

// Records returns the records of the last build of path.
func (c *Cache) Records(path string) []domain.Record {
	if entry, ok := c.entries[path]; ok {
		return slices.Clone(entry.Records)
	}
	return nil
}

// Remove forgets path.
func (c *Cache) Remove(path string) {
	delete(c.entries, path)
}

// Clear forgets every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Entries returns copies of all entries ordered by path.
func (c *Cache) Entries() []domain.CacheEntry {
	out := make([]domain.CacheEntry, 0, len(c.entries))
	for _, p := range slices.Sorted(maps.Keys(c.entries)) {
		out = append(out, *c.entries[p])
	}
	return out
}

// Restore replaces the cache content with entries.
func (c *Cache) Restore(entries []domain.CacheEntry) {
	clear(c.entries)
	for i := range entries {
		entry := entries[i]
		c.entries[entry.Path] = &entry
	}
}
