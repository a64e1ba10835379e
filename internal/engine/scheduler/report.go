package scheduler

import (
	"maps"
	"slices"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/engine/resolver"
)

// Record codes for diagnostics produced by the scheduler itself.
const (
	CodeParse             = "parse"
	CodeBuild             = "build"
	CodeMissingDependency = "missing-dependency"
)

// Report is the outcome of a build entry point.
type Report struct {
	records map[string][]domain.Record

	// Compiled lists the paths sent to the compiler, in order.
	Compiled []string
	// Cached counts the sources skipped as up to date.
	Cached int
	// Steps is the number of build steps run.
	Steps int
	// Stuck lists the sources that could not be scheduled.
	Stuck []resolver.Stuck
	// LimitReached is set when planning hit the step ceiling.
	LimitReached bool
}

func newReport() *Report {
	return &Report{records: make(map[string][]domain.Record)}
}

// set replaces the records of path. The latest build of a source wins.
func (r *Report) set(path string, records []domain.Record) {
	r.records[path] = slices.Clone(records)
}

func (r *Report) merge(other *Report) {
	maps.Copy(r.records, other.records)
	r.Compiled = append(r.Compiled, other.Compiled...)
	r.Cached += other.Cached
	r.Steps += other.Steps
	r.Stuck = append(r.Stuck, other.Stuck...)
	r.LimitReached = r.LimitReached || other.LimitReached
}

// Records returns every record in deterministic order.
func (r *Report) Records() []domain.Record {
	var out []domain.Record
	for _, p := range slices.Sorted(maps.Keys(r.records)) {
		out = append(out, r.records[p]...)
	}
	domain.SortRecords(out)
	return out
}

// RecordsFor returns the records of one path.
func (r *Report) RecordsFor(path string) []domain.Record {
	return slices.Clone(r.records[path])
}

// HasErrors reports whether any record is an error.
func (r *Report) HasErrors() bool {
	for _, recs := range r.records {
		if domain.HasErrors(recs) {
			return true
		}
	}
	return false
}
