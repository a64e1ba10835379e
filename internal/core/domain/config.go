package domain

import "slices"

// Default policy values.
const (
	DefaultMaxBuildSteps               = 20
	DefaultWorkers                     = 5
	DefaultMaxReverseDependencySources = 20
	DefaultMaxRebuildRetries           = 3
)

// BuildFlags are the compiler flags shared by every source.
type BuildFlags struct {
	// Global flags apply to every invocation.
	Global []string
	// Batch flags are added when building by dependency.
	Batch []string
	// Single flags are added when building a single path on demand.
	Single []string
}

// LibraryConfig lists the sources compiled into one library.
type LibraryConfig struct {
	Name    Name
	Sources []string
	Flags   []string
}

// Policy tunes the scheduler and rebuild controller.
type Policy struct {
	MaxBuildSteps               int
	Workers                     int
	ResetCacheOnError           bool
	ShowErrorsFromDependents    bool
	ShowWarningsFromDependents  bool
	MaxReverseDependencySources int
	MaxRebuildRetries           int
}

// DefaultPolicy returns the policy used when the project file sets nothing.
func DefaultPolicy() Policy {
	return Policy{
		MaxBuildSteps:               DefaultMaxBuildSteps,
		Workers:                     DefaultWorkers,
		ShowErrorsFromDependents:    true,
		MaxReverseDependencySources: DefaultMaxReverseDependencySources,
		MaxRebuildRetries:           DefaultMaxRebuildRetries,
	}
}

// ProjectConfig is a fully loaded and validated project file.
type ProjectConfig struct {
	// Path is the absolute path of the project file.
	Path      string
	Builder   string
	TargetDir string
	Flags     BuildFlags
	Libraries []LibraryConfig
	Policy    Policy
}

// SourceFlags returns the flags for a source of the given library: library flags,
// then global flags, without duplicates.
func (c *ProjectConfig) SourceFlags(lib LibraryConfig) []string {
	out := make([]string, 0, len(lib.Flags)+len(c.Flags.Global))
	for _, f := range slices.Concat(lib.Flags, c.Flags.Global) {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
