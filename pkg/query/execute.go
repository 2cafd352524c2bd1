package query

import (
	"context"
	"time"

	"github.com/cinegraph/backend/pkg/common"
)

// execute hands query to the store as is. It never retries or rewrites.
func (c *Client) execute(ctx context.Context, trace Tracer, query string) ([]common.Record, error) {
	start := time.Now()
	records, err := c.store.Query(ctx, query, nil)
	if err != nil {
		return nil, fail(trace, StageExecute, err)
	}
	record(trace, TraceEvent{
		Kind:       TraceEventRecordsFetched,
		Stage:      StageExecute,
		Records:    len(records),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return records, nil
}
