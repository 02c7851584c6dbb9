package status

import "sync/atomic"

// Metric keys written by the pipeline
const (
	CuesRendered   = "cues.rendered"
	CuesSkipped    = "cues.skipped"
	BatchesFlushed = "batches.flushed"

	ErrorsPipeline = "errors.pipeline"
	ErrorsPlayback = "errors.playback"
	ErrorsResume   = "errors.resume"

	SchedulerDispatched = "scheduler.dispatched"
	SchedulerRejected   = "scheduler.rejected"
	SchedulerFailed     = "scheduler.failed"

	EngineRetain   = "engine.retain"
	EngineContexts = "engine.contexts"
)

// Registry collects pipeline counters and gauges
// Components cache the pointers they write once at construction
type Registry struct {
	Counters *MetricMap[atomic.Int64]
	Gauges   *MetricMap[AtomicFloat]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: NewMetricMap[atomic.Int64](),
		Gauges:   NewMetricMap[AtomicFloat](),
	}
}

// Counter returns the named counter, or a detached one when r is nil
// so callers can hold a registry-less pointer without branching
func (r *Registry) Counter(key string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.Counters.Get(key)
}

// Gauge returns the named gauge, or a detached one when r is nil
func (r *Registry) Gauge(key string) *AtomicFloat {
	if r == nil {
		return new(AtomicFloat)
	}
	return r.Gauges.Get(key)
}

// Snapshot copies every metric value, counters converted to float64
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	if r == nil {
		return out
	}
	r.Counters.Range(func(key string, c *atomic.Int64) {
		out[key] = float64(c.Load())
	})
	r.Gauges.Range(func(key string, g *AtomicFloat) {
		out[key] = g.Get()
	})
	return out
}

// TotalCount returns the number of registered metrics
func (r *Registry) TotalCount() int {
	return r.Counters.Count() + r.Gauges.Count()
}
