// Package centrality attaches importance scores to formatted graphs and runs
// the batch computations that produce them.
package centrality

import (
	"context"
	"fmt"
	"slices"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/viz"
)

// Lookup reads stored scores by node id.
type Lookup interface {
	GetCentrality(ctx context.Context, ids []string) (map[string]common.Centrality, error)
}

// Enricher merges stored scores onto payload nodes.
type Enricher struct {
	lookup Lookup
}

func NewEnricher(lookup Lookup) *Enricher {
	return &Enricher{lookup: lookup}
}

// Enrich returns p with every score the store holds copied onto the node of
// the same id. Scores the store lacks keep the node's existing value. Node
// and link order and counts are unchanged. An empty payload is returned as is
// without a lookup. p itself is not modified.
func (e *Enricher) Enrich(ctx context.Context, p viz.Payload) (viz.Payload, error) {
	if len(p.Nodes) == 0 {
		return p, nil
	}

	scores, err := e.lookup.GetCentrality(ctx, p.IDs())
	if err != nil {
		return viz.Payload{}, fmt.Errorf("failed to load centrality: %w", err)
	}

	out := viz.Payload{
		Nodes: slices.Clone(p.Nodes),
		Links: p.Links,
	}
	for i := range out.Nodes {
		c, ok := scores[out.Nodes[i].ID]
		if !ok {
			continue
		}
		merge(&out.Nodes[i].Centrality, c)
	}
	return out, nil
}

func merge(dst *common.Centrality, src common.Centrality) {
	if src.Eigenvector != nil {
		dst.Eigenvector = src.Eigenvector
	}
	if src.PageRank != nil {
		dst.PageRank = src.PageRank
	}
	if src.Degree != nil {
		dst.Degree = src.Degree
	}
}
