package ports

import "go.trai.ch/hdlbuild/internal/core/domain"

// SourceParser extracts design units and dependencies from HDL text.
type SourceParser interface {
	// Parse returns the units, dependencies and package flag of a source text.
	// It fails with domain.ErrParse when no unit is found or a name is invalid.
	Parse(text []byte) (domain.ParsedSource, error)
}
