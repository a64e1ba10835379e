package domain

import (
	"strings"
	"unique"
)

// Name is an interned HDL identifier.
// HDL identifiers are case-insensitive, so the value is lower-cased on creation
// and two Names compare equal regardless of the spelling used in the source.
type Name struct {
	h unique.Handle[string]
}

// NewName creates a Name from an identifier, normalizing it to lower case.
func NewName(s string) Name {
	return Name{h: unique.Make(strings.ToLower(s))}
}

// NewNames creates a Name slice from a string slice.
func NewNames(s []string) []Name {
	res := make([]Name, len(s))
	for i, v := range s {
		res[i] = NewName(v)
	}
	return res
}

// String returns the normalized identifier.
func (n Name) String() string {
	var zero unique.Handle[string]
	if n.h == zero {
		return ""
	}
	return n.h.Value()
}

// IsZero reports whether the Name was never set.
func (n Name) IsZero() bool {
	var zero unique.Handle[string]
	return n.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	*n = NewName(string(text))
	return nil
}

// WorkLibrary is the alias every source may use for its own library.
var WorkLibrary = NewName("work")

// AllUnits is the pseudo-unit used by "use lib.all" clauses.
var AllUnits = NewName("all")

// UnitKey identifies a design unit within a library.
type UnitKey struct {
	Library Name `json:"library"`
	Unit    Name `json:"unit"`
}

// NewUnitKey creates a UnitKey from raw library and unit identifiers.
func NewUnitKey(library, unit string) UnitKey {
	return UnitKey{Library: NewName(library), Unit: NewName(unit)}
}

// ParseUnitKey parses "library.unit". It returns false if s has no dot.
func ParseUnitKey(s string) (UnitKey, bool) {
	lib, unit, ok := strings.Cut(s, ".")
	if !ok || lib == "" || unit == "" {
		return UnitKey{}, false
	}
	return NewUnitKey(lib, unit), true
}

// String returns the "library.unit" form.
func (k UnitKey) String() string {
	return k.Library.String() + "." + k.Unit.String()
}

// Less orders keys by library, then unit.
func (k UnitKey) Less(o UnitKey) bool {
	if k.Library != o.Library {
		return k.Library.String() < o.Library.String()
	}
	return k.Unit.String() < o.Unit.String()
}
