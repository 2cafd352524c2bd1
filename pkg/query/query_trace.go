package query

import (
	"fmt"
	"sync"

	"github.com/cinegraph/backend/pkg/logger"
)

type TraceEventKind string

const (
	TraceEventEntitiesResolved TraceEventKind = "entities_resolved"
	TraceEventQueryGenerated   TraceEventKind = "query_generated"
	TraceEventRecordsFetched   TraceEventKind = "records_fetched"
	TraceEventGraphFormatted   TraceEventKind = "graph_formatted"
	TraceEventStageFailed      TraceEventKind = "stage_failed"
)

// TraceEvent is an extensible event envelope for pipeline tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind  TraceEventKind
	Stage Stage

	Mentions    []string
	Corrections []string

	Query        string
	LimitApplied bool

	Records int
	Nodes   int
	Links   int

	DurationMs int64
	Error      string
}

// Tracer is a sink for pipeline tracing events.
//
// Implementers can forward events to logs, telemetry, or custom post-processing
// pipelines.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func record(t Tracer, event TraceEvent) {
	if t == nil {
		return
	}
	t.Record(event)
}

// LogTracer writes every event to the logger at debug level.
type LogTracer struct{}

func (LogTracer) Record(event TraceEvent) {
	switch event.Kind {
	case TraceEventEntitiesResolved:
		logger.Debug("[Query] Entities resolved",
			"mentions", event.Mentions, "corrections", event.Corrections, "duration_ms", event.DurationMs)
	case TraceEventQueryGenerated:
		logger.Debug("[Query] Query generated",
			"query", event.Query, "limit_applied", event.LimitApplied, "duration_ms", event.DurationMs)
	case TraceEventRecordsFetched:
		logger.Debug("[Query] Records fetched", "records", event.Records, "duration_ms", event.DurationMs)
	case TraceEventGraphFormatted:
		logger.Debug("[Query] Graph formatted",
			"nodes", event.Nodes, "links", event.Links, "duration_ms", event.DurationMs)
	case TraceEventStageFailed:
		logger.Debug("[Query] Stage failed", "stage", event.Stage, "err", event.Error)
	}
}

// QueryTrace collects what one pipeline run did.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	mentions     []string
	corrections  []string
	query        string
	limitApplied bool
	records      int
	nodes        int
	links        int
	failedStage  Stage
	durations    map[Stage]int64
}

type QueryTraceSnapshot struct {
	Mentions     []string        `json:"mentions"`
	Corrections  []string        `json:"corrections"`
	Query        string          `json:"query,omitempty"`
	LimitApplied bool            `json:"limit_applied"`
	Records      int             `json:"records"`
	Nodes        int             `json:"nodes"`
	Links        int             `json:"links"`
	FailedStage  Stage           `json:"failed_stage,omitempty"`
	DurationsMs  map[Stage]int64 `json:"durations_ms"`
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		durations: make(map[Stage]int64),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if event.Stage != "" && event.Kind != TraceEventStageFailed {
		t.durations[event.Stage] += event.DurationMs
	}

	switch event.Kind {
	case TraceEventEntitiesResolved:
		t.mentions = append(t.mentions, event.Mentions...)
		t.corrections = append(t.corrections, event.Corrections...)
	case TraceEventQueryGenerated:
		t.query = event.Query
		t.limitApplied = event.LimitApplied
	case TraceEventRecordsFetched:
		t.records = event.Records
	case TraceEventGraphFormatted:
		t.nodes = event.Nodes
		t.links = event.Links
	case TraceEventStageFailed:
		t.failedStage = event.Stage
	default:
		return
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		Mentions:     append([]string{}, t.mentions...),
		Corrections:  append([]string{}, t.corrections...),
		Query:        t.query,
		LimitApplied: t.limitApplied,
		Records:      t.records,
		Nodes:        t.nodes,
		Links:        t.links,
		FailedStage:  t.failedStage,
		DurationsMs:  make(map[Stage]int64, len(t.durations)),
	}
	for k, v := range t.durations {
		s.DurationsMs[k] = v
	}
	return s
}

func formatCorrection(mention, match string, score float64) string {
	return fmt.Sprintf("%s -> %s (%.2f)", mention, match, score)
}
