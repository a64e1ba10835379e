// Package resolver turns parsed sources into a dependency graph and dependency-respecting build steps.
package resolver

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// Builtins is the set of libraries provided by the toolchain.
type Builtins map[domain.Name]struct{}

// NewBuiltins creates a Builtins set from library names.
func NewBuiltins(libs []string) Builtins {
	b := make(Builtins, len(libs))
	for _, l := range libs {
		b[domain.NewName(l)] = struct{}{}
	}
	return b
}

// Has reports whether lib is built in.
func (b Builtins) Has(lib domain.Name) bool {
	_, ok := b[lib]
	return ok
}

// Dependencies returns the units src must have available before it is compiled.
// "work" maps to the source's own library; built-in libraries, "all" and
// units declared by src itself are dropped.
func Dependencies(src *domain.SourceFile, builtins Builtins) []domain.UnitKey {
	seen := make(map[domain.UnitKey]struct{}, len(src.Dependencies))
	out := make([]domain.UnitKey, 0, len(src.Dependencies))

	for _, dep := range src.Dependencies {
		lib := dep.Library
		if lib == domain.WorkLibrary {
			lib = src.Library
		}
		if builtins.Has(lib) || dep.Unit == domain.AllUnits {
			continue
		}
		key := domain.UnitKey{Library: lib, Unit: dep.Unit}
		if src.Declares(key) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	slices.SortFunc(out, compareKeys)
	return out
}

// DependencyMap returns the effective dependencies of each parsed source, keyed by path.
func DependencyMap(sources []*domain.SourceFile, builtins Builtins) map[string][]domain.UnitKey {
	out := make(map[string][]domain.UnitKey, len(sources))
	for _, src := range sources {
		if !src.Parsed() {
			continue
		}
		out[src.Path] = Dependencies(src, builtins)
	}
	return out
}

// ReverseDependencyMap returns, for every depended-on unit, the paths of the sources depending on it.
func ReverseDependencyMap(sources []*domain.SourceFile, builtins Builtins) map[domain.UnitKey][]string {
	out := make(map[domain.UnitKey][]string)
	for _, src := range sources {
		if !src.Parsed() {
			continue
		}
		for _, key := range Dependencies(src, builtins) {
			out[key] = append(out[key], src.Path)
		}
	}
	for key := range out {
		slices.Sort(out[key])
	}
	return out
}

// Dependents returns the sources depending on any unit declared by target, ordered by path.
func Dependents(target *domain.SourceFile, sources []*domain.SourceFile, builtins Builtins) []*domain.SourceFile {
	keys := make(map[domain.UnitKey]struct{})
	for _, k := range target.Keys() {
		keys[k] = struct{}{}
	}

	var out []*domain.SourceFile
	for _, src := range sources {
		if src.Path == target.Path || !src.Parsed() {
			continue
		}
		if slices.ContainsFunc(Dependencies(src, builtins), func(k domain.UnitKey) bool {
			_, ok := keys[k]
			return ok
		}) {
			out = append(out, src)
		}
	}
	slices.SortFunc(out, func(a, b *domain.SourceFile) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// SortedKeys returns the keys of a reverse dependency map in order.
func SortedKeys(m map[domain.UnitKey][]string) []domain.UnitKey {
	return slices.SortedFunc(maps.Keys(m), compareKeys)
}

func compareKeys(a, b domain.UnitKey) int {
	return strings.Compare(a.String(), b.String())
}
