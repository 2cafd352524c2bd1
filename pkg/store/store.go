// Package store defines the graph store the question pipeline runs against.
package store

import (
	"context"

	"github.com/cinegraph/backend/pkg/common"
)

// GraphStorage is the graph database as seen by the pipeline: read-only
// query execution, schema introspection, fuzzy entity lookup, and the
// precomputed centrality scores.
type GraphStorage interface {
	// Query runs cypher in a read-only transaction and converts every row
	// into a common.Record. Store diagnostics are returned verbatim.
	Query(ctx context.Context, cypher string, params map[string]any) ([]common.Record, error)

	// Schema describes node properties, relationship properties and
	// relationship patterns as text for query generation.
	Schema(ctx context.Context) (string, error)

	// FullTextSearch returns the best fuzzy hit for text in the named
	// full-text index, reading property from the hit node. It returns nil
	// when the index has no hit.
	FullTextSearch(ctx context.Context, index, property, text string) (*common.Match, error)

	// GetCentrality looks up the centrality scores of the nodes whose
	// personId or movieId is in ids. Unknown ids are absent from the result.
	GetCentrality(ctx context.Context, ids []string) (map[string]common.Centrality, error)

	// ComputeCentrality runs one batch centrality computation and writes
	// its score onto every Person and Movie node.
	ComputeCentrality(ctx context.Context, algorithm common.CentralityAlgorithm) (common.CentralityRun, error)

	// TopByCentrality returns the limit highest scoring nodes of kind for
	// the property written by algorithm.
	TopByCentrality(
		ctx context.Context,
		kind common.EntityKind,
		algorithm common.CentralityAlgorithm,
		limit int,
	) ([]common.RankedEntity, error)

	// SummarizeCentrality aggregates the property written by algorithm over
	// all nodes of kind.
	SummarizeCentrality(
		ctx context.Context,
		kind common.EntityKind,
		algorithm common.CentralityAlgorithm,
	) (common.ScoreSummary, error)

	Close(ctx context.Context) error
}
