package ai

import (
	"context"
	"math"
	"sync"
)

// Add returns the sum of m and o with the throughput recomputed from the
// summed totals.
func (m ModelMetrics) Add(o ModelMetrics) ModelMetrics {
	m.InputTokens += o.InputTokens
	m.OutputTokens += o.OutputTokens
	m.TotalTokens += o.TotalTokens
	m.DurationMs += o.DurationMs

	m.TokenPerSecond = 0
	if m.DurationMs > 0 {
		tps := (float64(m.TotalTokens) * 1000.0) / float64(m.DurationMs)
		m.TokenPerSecond = float32(math.Round(tps*100) / 100)
	}
	return m
}

// MetricsRecorder accumulates the model usage of a single request. Adapters
// report into the recorder found on the call context in addition to their own
// client-wide totals, so concurrent requests never see each other's usage.
type MetricsRecorder struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// Snapshot returns the usage recorded so far.
func (r *MetricsRecorder) Snapshot() ModelMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

func (r *MetricsRecorder) add(m ModelMetrics) {
	r.mu.Lock()
	r.metrics = r.metrics.Add(m)
	r.mu.Unlock()
}

type recorderKey struct{}

// WithMetricsRecorder returns a context carrying a fresh recorder.
func WithMetricsRecorder(ctx context.Context) (context.Context, *MetricsRecorder) {
	r := &MetricsRecorder{}
	return context.WithValue(ctx, recorderKey{}, r), r
}

// RecordMetrics adds m to the recorder on ctx, if there is one.
func RecordMetrics(ctx context.Context, m ModelMetrics) {
	if r, ok := ctx.Value(recorderKey{}).(*MetricsRecorder); ok {
		r.add(m)
	}
}

// ApplyOptions resolves opts on top of defaults.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}
