// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// Builder wraps one external HDL compiler.
//
//go:generate mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Name returns the builder identifier used in project files.
	Name() string

	// BuiltinLibraries lists the libraries the toolchain provides itself.
	// Dependencies on them are never scheduled.
	BuiltinLibraries() []string

	// ConcurrentSafe reports whether two Build calls may run at the same time.
	ConcurrentSafe() bool

	// SanityCheck verifies the toolchain is installed and reports a known version.
	SanityCheck(ctx context.Context) error

	// CreateOrMapLibrary makes the library available in the target directory.
	// Calling it for a library that already exists is a no-op.
	CreateOrMapLibrary(ctx context.Context, library domain.Name) error

	// Build compiles one source. Diagnostics reported by the compiler come back as
	// records; the error is reserved for failures to run the compiler at all.
	Build(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error)
}
