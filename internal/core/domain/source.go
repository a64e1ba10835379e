package domain

import "time"

// UnitKind classifies a design unit.
type UnitKind string

const (
	// KindEntity is a VHDL entity.
	KindEntity UnitKind = "entity"
	// KindPackage is a VHDL package declaration.
	KindPackage UnitKind = "package"
	// KindPackageBody is a VHDL package body.
	KindPackageBody UnitKind = "package body"
)

// DesignUnit is a compilable unit declared by a source file.
type DesignUnit struct {
	Name Name     `json:"name"`
	Kind UnitKind `json:"kind"`
}

// ParsedSource is what the parser extracts from a single source text.
type ParsedSource struct {
	// Units are the design units in declaration order.
	Units []DesignUnit
	// Dependencies are the referenced units, de-duplicated.
	// Library names are as written, so "work" has not been mapped yet.
	Dependencies []UnitKey
	// HasPackage is true if any unit is a package declaration.
	HasPackage bool
}

// SourceFile is a single HDL source registered in a project.
type SourceFile struct {
	Path         string
	Library      Name
	Flags        []string
	Units        []DesignUnit
	Dependencies []UnitKey
	HasPackage   bool

	// ParsedMtime is the on-disk mtime observed at the last parse.
	ParsedMtime time.Time
	// ParseErr holds the last parse failure, if any.
	ParseErr error
}

// Keys returns the UnitKeys this source owns. A package body does not own its
// package's key: it is compiled after the package, wherever the package lives.
func (s *SourceFile) Keys() []UnitKey {
	keys := make([]UnitKey, 0, len(s.Units))
	seen := make(map[Name]struct{}, len(s.Units))
	for _, u := range s.Units {
		if u.Kind == KindPackageBody {
			continue
		}
		if _, ok := seen[u.Name]; ok {
			continue
		}
		seen[u.Name] = struct{}{}
		keys = append(keys, UnitKey{Library: s.Library, Unit: u.Name})
	}
	return keys
}

// Declares reports whether the source owns the given unit.
// Package bodies are ignored, so a body-only source depends on its package.
func (s *SourceFile) Declares(key UnitKey) bool {
	if key.Library != s.Library {
		return false
	}
	for _, u := range s.Units {
		if u.Kind != KindPackageBody && u.Name == key.Unit {
			return true
		}
	}
	return false
}

// Parsed reports whether the source has been parsed successfully at least once.
func (s *SourceFile) Parsed() bool {
	return !s.ParsedMtime.IsZero() && s.ParseErr == nil
}

// FileStat is the subset of file metadata the build cache decides on.
type FileStat struct {
	Mtime time.Time
	Size  int64
}
