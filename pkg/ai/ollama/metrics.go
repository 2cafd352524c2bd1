package ollama

import (
	"context"

	"github.com/cinegraph/backend/pkg/ai"
)

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *GraphOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (c *GraphOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *GraphOllamaClient) modifyMetrics(ctx context.Context, m ai.ModelMetrics) {
	c.metricsLock.Lock()
	c.metrics = c.metrics.Add(m)
	c.metricsLock.Unlock()

	ai.RecordMetrics(ctx, m)
}
