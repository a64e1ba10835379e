// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/zerr"
)

const namespace = "hdlbuild"

// Recorder holds the session's build metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// Builds counts compiler invocations by library and outcome.
	Builds *prometheus.CounterVec
	// Durations observes compiler invocation time by library.
	Durations *prometheus.HistogramVec
	// CacheHits counts sources skipped because they were up to date.
	CacheHits prometheus.Counter
	// Hints counts rebuild hints returned by the compiler.
	Hints prometheus.Counter
	// Steps counts completed build steps.
	Steps prometheus.Counter
	// Stuck is the number of sources left unscheduled by the last batch.
	Stuck prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Compiler invocations by library and outcome.",
		}, []string{"library", "outcome"}),
		Durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent in one compiler invocation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"library"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Sources skipped because their last build is still valid.",
		}),
		Hints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_hints_total",
			Help:      "Units the compiler asked to recompile.",
		}),
		Steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_steps_total",
			Help:      "Completed build steps.",
		}),
		Stuck: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stuck_sources",
			Help:      "Sources that could not be scheduled in the last batch.",
		}),
	}
}

// ObserveBuild records one compiler invocation.
func (r *Recorder) ObserveBuild(library, outcome string, elapsed time.Duration) {
	r.Builds.WithLabelValues(library, outcome).Inc()
	r.Durations.WithLabelValues(library).Observe(elapsed.Seconds())
}

// CacheHit records a source skipped because it was up to date.
func (r *Recorder) CacheHit() {
	r.CacheHits.Inc()
}

// RebuildHints records hints returned by the compiler.
func (r *Recorder) RebuildHints(n int) {
	if n > 0 {
		r.Hints.Add(float64(n))
	}
}

// StepCompleted records a finished build step.
func (r *Recorder) StepCompleted() {
	r.Steps.Inc()
}

// StuckSources records how many sources could not be scheduled.
func (r *Recorder) StuckSources(n int) {
	r.Stuck.Set(float64(n))
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics"), "path", path)
	}
	return nil
}
