// Package query runs the question pipeline: entity resolution, query
// generation, execution, formatting and centrality enrichment.
package query

import (
	"context"
	"time"

	"github.com/cinegraph/backend/pkg/ai"
	"github.com/cinegraph/backend/pkg/centrality"
	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/cypher"
	"github.com/cinegraph/backend/pkg/entity"
	"github.com/cinegraph/backend/pkg/viz"
)

// Store is the part of the graph store the pipeline reads from.
type Store interface {
	entity.Searcher
	centrality.Lookup

	Query(ctx context.Context, cypher string, params map[string]any) ([]common.Record, error)
	Schema(ctx context.Context) (string, error)
}

// Result is one answered question.
type Result struct {
	Question          string
	CorrectedQuestion string
	Query             string
	LimitApplied      bool
	Records           []common.Record
	Payload           viz.Payload
}

// Client answers questions. It holds no per-question state and is safe for
// concurrent use.
type Client struct {
	store    Store
	resolver *entity.Resolver
	synth    *cypher.Synthesizer
	enricher *centrality.Enricher
	trace    Tracer
}

// NewClientParams configures a Client. Zero values select the component
// defaults.
type NewClientParams struct {
	Generator ai.Generator
	Store     Store

	ExtractModel string
	QueryModel   string

	ResultLimit    int
	MatchThreshold *float64
	PersonIndex    string
	MovieIndex     string
}

type ClientOption func(*Client)

func WithTracer(trace Tracer) ClientOption {
	return func(c *Client) {
		c.trace = trace
	}
}

func NewClient(params NewClientParams, opts ...ClientOption) *Client {
	c := &Client{
		store: params.Store,
		resolver: entity.NewResolver(entity.NewResolverParams{
			Generator:   params.Generator,
			Searcher:    params.Store,
			Model:       params.ExtractModel,
			Threshold:   params.MatchThreshold,
			PersonIndex: params.PersonIndex,
			MovieIndex:  params.MovieIndex,
		}),
		synth: cypher.NewSynthesizer(cypher.NewSynthesizerParams{
			Generator: params.Generator,
			Model:     params.QueryModel,
			Limit:     params.ResultLimit,
		}),
		enricher: centrality.NewEnricher(params.Store),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type answerOptions struct {
	trace Tracer
}

// AnswerOption adjusts a single Answer or Render call.
type AnswerOption func(*answerOptions)

// WithRequestTracer sends the events of one call to trace in addition to the
// client's tracer.
func WithRequestTracer(trace Tracer) AnswerOption {
	return func(o *answerOptions) {
		o.trace = trace
	}
}

func (c *Client) tracer(opts []AnswerOption) Tracer {
	var o answerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.trace == nil {
		return c.trace
	}
	if c.trace == nil {
		return o.trace
	}
	return MultiTracer{c.trace, o.trace}
}

// Answer runs every stage for question in order. history holds prior turns,
// oldest first. A failure stops the run and is returned as a *StageError;
// there is no partial result.
func (c *Client) Answer(
	ctx context.Context,
	question string,
	history []ai.ChatMessage,
	opts ...AnswerOption,
) (*Result, error) {
	trace := c.tracer(opts)

	start := time.Now()
	res, err := c.resolver.Resolve(ctx, question, history)
	if err != nil {
		return nil, fail(trace, StageResolve, err)
	}
	record(trace, resolvedEvent(res, time.Since(start)))

	start = time.Now()
	schema, err := c.store.Schema(ctx)
	if err != nil {
		return nil, fail(trace, StageSchema, err)
	}
	record(trace, TraceEvent{Stage: StageSchema, DurationMs: time.Since(start).Milliseconds()})

	start = time.Now()
	q, err := c.synth.Synthesize(ctx, res.Corrected, schema, history)
	if err != nil {
		return nil, fail(trace, StageSynthesize, err)
	}
	record(trace, TraceEvent{
		Kind:         TraceEventQueryGenerated,
		Stage:        StageSynthesize,
		Query:        q.Query,
		LimitApplied: q.LimitApplied,
		DurationMs:   time.Since(start).Milliseconds(),
	})

	records, err := c.execute(ctx, trace, q.Query)
	if err != nil {
		return nil, err
	}

	payload, err := c.render(ctx, trace, records)
	if err != nil {
		return nil, err
	}

	return &Result{
		Question:          question,
		CorrectedQuestion: res.Corrected,
		Query:             q.Query,
		LimitApplied:      q.LimitApplied,
		Records:           records,
		Payload:           payload,
	}, nil
}

// Render formats records and enriches the result with stored centrality
// scores. It does not run any query of its own besides the score lookup.
func (c *Client) Render(
	ctx context.Context,
	records []common.Record,
	opts ...AnswerOption,
) (viz.Payload, error) {
	return c.render(ctx, c.tracer(opts), records)
}

func (c *Client) render(ctx context.Context, trace Tracer, records []common.Record) (viz.Payload, error) {
	start := time.Now()
	payload, err := c.enricher.Enrich(ctx, viz.Format(records))
	if err != nil {
		return viz.Payload{}, fail(trace, StageEnrich, err)
	}
	record(trace, TraceEvent{
		Kind:       TraceEventGraphFormatted,
		Stage:      StageEnrich,
		Nodes:      len(payload.Nodes),
		Links:      len(payload.Links),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return payload, nil
}

func fail(trace Tracer, stage Stage, err error) error {
	record(trace, TraceEvent{Kind: TraceEventStageFailed, Stage: stage, Error: err.Error()})
	return &StageError{Stage: stage, Err: err}
}

func resolvedEvent(res entity.Resolution, took time.Duration) TraceEvent {
	ev := TraceEvent{
		Kind:       TraceEventEntitiesResolved,
		Stage:      StageResolve,
		DurationMs: took.Milliseconds(),
	}
	for _, m := range res.Mentions {
		ev.Mentions = append(ev.Mentions, m.Text)
	}
	for _, corr := range res.Corrections {
		ev.Corrections = append(ev.Corrections, formatCorrection(corr.Mention, corr.Match, corr.Score))
	}
	return ev
}
