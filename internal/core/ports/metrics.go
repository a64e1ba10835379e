package ports

import "time"

// Build outcomes reported to Metrics.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Metrics records build counters for a session.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveBuild records one compiler invocation.
	ObserveBuild(library, outcome string, elapsed time.Duration)
	// CacheHit records a source skipped because it was up to date.
	CacheHit()
	// RebuildHints records hints returned by the compiler.
	RebuildHints(n int)
	// StepCompleted records a finished build step.
	StepCompleted()
	// StuckSources records how many sources could not be scheduled.
	StuckSources(n int)
}
