// Package registry owns the set of sources in a project and the unit ownership index.
//
// A Registry is not safe for concurrent use; the project aggregate guards it.
package registry

import (
	"maps"
	"slices"
	"strings"
	"time"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Registry maps paths to sources and design units to the source declaring them.
// Every source claiming a unit is remembered, so a duplicate stays reported
// until one of the claimants stops declaring it.
type Registry struct {
	sources map[string]*domain.SourceFile
	claims  map[domain.UnitKey][]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sources: make(map[string]*domain.SourceFile),
		claims:  make(map[domain.UnitKey][]string),
	}
}

// Add registers a source. Adding a known path updates its library and flags;
// a library change drops the parsed state so the source is parsed again.
func (r *Registry) Add(path string, library domain.Name, flags []string) *domain.SourceFile {
	if src, ok := r.sources[path]; ok {
		if src.Library != library {
			r.unindex(path)
			*src = domain.SourceFile{Path: path}
		}
		src.Library = library
		src.Flags = slices.Clone(flags)
		return src
	}

	src := &domain.SourceFile{
		Path:    path,
		Library: library,
		Flags:   slices.Clone(flags),
	}
	r.sources[path] = src
	return src
}

// Remove unregisters a source.
func (r *Registry) Remove(path string) {
	r.unindex(path)
	delete(r.sources, path)
}

// Get returns the source registered at path.
func (r *Registry) Get(path string) (*domain.SourceFile, bool) {
	src, ok := r.sources[path]
	return src, ok
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

// Paths returns every registered path in lexical order.
func (r *Registry) Paths() []string {
	return slices.Sorted(maps.Keys(r.sources))
}

// Sources returns every registered source ordered by path.
func (r *Registry) Sources() []*domain.SourceFile {
	out := make([]*domain.SourceFile, 0, len(r.sources))
	for _, p := range r.Paths() {
		out = append(out, r.sources[p])
	}
	return out
}

// Libraries returns the distinct libraries of all sources in lexical order.
func (r *Registry) Libraries() []domain.Name {
	seen := make(map[domain.Name]struct{})
	var out []domain.Name
	for _, src := range r.sources {
		if _, ok := seen[src.Library]; ok {
			continue
		}
		seen[src.Library] = struct{}{}
		out = append(out, src.Library)
	}
	slices.SortFunc(out, func(a, b domain.Name) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// Stale reports whether the source must be parsed given its current on-disk mtime.
func (r *Registry) Stale(path string, mtime time.Time) bool {
	src, ok := r.sources[path]
	if !ok {
		return false
	}
	return src.ParsedMtime.IsZero() || mtime.After(src.ParsedMtime)
}

// Apply records a parse outcome. A parse error keeps the source registered
// but removes its units from the ownership index. A unit already claimed by
// another source yields domain.ErrDuplicateDesignUnit; see Conflicts.
func (r *Registry) Apply(path string, parsed domain.ParsedSource, mtime time.Time, parseErr error) error {
	src, ok := r.sources[path]
	if !ok {
		return zerr.With(domain.ErrSourceNotFound, "path", path)
	}

	r.unindex(path)
	src.ParsedMtime = mtime
	src.ParseErr = parseErr

	if parseErr != nil {
		src.Units = nil
		src.Dependencies = nil
		src.HasPackage = false
		return nil
	}

	src.Units = parsed.Units
	src.Dependencies = parsed.Dependencies
	src.HasPackage = parsed.HasPackage

	return r.index(src)
}

// Owner returns the path of the source declaring key. When several sources
// claim it, the lexically first one is returned.
func (r *Registry) Owner(key domain.UnitKey) (string, bool) {
	paths := r.claims[key]
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

// Conflicts returns domain.ErrDuplicateDesignUnit for the first unit, in key
// order, that more than one source declares. It returns nil when every unit
// has a single owner.
func (r *Registry) Conflicts() error {
	var dups []domain.UnitKey
	for key, paths := range r.claims {
		if len(paths) > 1 {
			dups = append(dups, key)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	slices.SortFunc(dups, func(a, b domain.UnitKey) int {
		return strings.Compare(a.String(), b.String())
	})
	paths := r.claims[dups[0]]
	return duplicate(dups[0], paths[0], paths[1])
}

func (r *Registry) index(src *domain.SourceFile) error {
	var err error
	for _, key := range src.Keys() {
		paths := r.claims[key]
		if i, found := slices.BinarySearch(paths, src.Path); !found {
			paths = slices.Insert(paths, i, src.Path)
		}
		r.claims[key] = paths
		if len(paths) > 1 {
			first := paths[0]
			if first == src.Path {
				first = paths[1]
			}
			err = duplicate(key, first, src.Path)
		}
	}
	return err
}

func (r *Registry) unindex(path string) {
	for key, paths := range r.claims {
		i, found := slices.BinarySearch(paths, path)
		if !found {
			continue
		}
		paths = slices.Delete(paths, i, i+1)
		if len(paths) == 0 {
			delete(r.claims, key)
			continue
		}
		r.claims[key] = paths
	}
}

func duplicate(key domain.UnitKey, first, second string) error {
	err := zerr.With(domain.ErrDuplicateDesignUnit, "unit", key.String())
	err = zerr.With(err, "first", first)
	return zerr.With(err, "second", second)
}

// Snapshot returns the persisted form of every successfully parsed source.
func (r *Registry) Snapshot() []domain.SourceSnapshot {
	var out []domain.SourceSnapshot
	for _, src := range r.Sources() {
		if !src.Parsed() {
			continue
		}
		out = append(out, domain.SourceSnapshot{
			Path:         src.Path,
			Library:      src.Library,
			Flags:        slices.Clone(src.Flags),
			Units:        slices.Clone(src.Units),
			Dependencies: slices.Clone(src.Dependencies),
			HasPackage:   src.HasPackage,
			ParsedMtime:  src.ParsedMtime,
		})
	}
	return out
}

// Restore reloads parsed state for sources that are registered under the same library.
// Snapshots of sources no longer in the project are ignored.
func (r *Registry) Restore(snaps []domain.SourceSnapshot) error {
	var err error
	for _, snap := range snaps {
		src, ok := r.sources[snap.Path]
		if !ok || src.Library != snap.Library {
			continue
		}
		parsed := domain.ParsedSource{
			Units:        snap.Units,
			Dependencies: snap.Dependencies,
			HasPackage:   snap.HasPackage,
		}
		if applyErr := r.Apply(snap.Path, parsed, snap.ParsedMtime, nil); applyErr != nil {
			err = applyErr
		}
	}
	return err
}
