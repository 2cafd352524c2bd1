package centrality

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/viz"
)

type stubLookup struct {
	scores map[string]common.Centrality
	err    error
	calls  int
	ids    []string
}

func (s *stubLookup) GetCentrality(ctx context.Context, ids []string) (map[string]common.Centrality, error) {
	s.calls++
	s.ids = ids
	return s.scores, s.err
}

func f(v float64) *float64 { return &v }

func TestEnrich_EmptyPayloadIsIdentity(t *testing.T) {
	lookup := &stubLookup{}
	in := viz.Empty()

	got, err := NewEnricher(lookup).Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("Enrich() = %+v, want %+v", got, in)
	}
	if lookup.calls != 0 {
		t.Fatalf("Enrich() made %d lookups, want 0", lookup.calls)
	}
}

func TestEnrich_MergesByID(t *testing.T) {
	in := viz.Payload{
		Nodes: []viz.Node{
			{ID: "p1", Label: "Tom Hanks", Type: common.KindPerson},
			{ID: "m1", Label: "Big", Type: common.KindMovie, Centrality: common.Centrality{Eigenvector: f(0.1)}},
			{ID: "m2", Label: "Splash", Type: common.KindMovie},
		},
		Links: []viz.Link{
			{Source: "p1", Target: "m1", Label: "ACTED_IN"},
			{Source: "p1", Target: "m2", Label: "ACTED_IN"},
		},
	}
	lookup := &stubLookup{scores: map[string]common.Centrality{
		"p1": {Eigenvector: f(0.9), PageRank: f(2.5), Degree: f(80)},
		"m1": {PageRank: f(0.7)},
		"x9": {PageRank: f(1)},
	}}

	got, err := NewEnricher(lookup).Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if lookup.calls != 1 || !reflect.DeepEqual(lookup.ids, []string{"p1", "m1", "m2"}) {
		t.Fatalf("lookup calls = %d with ids %v, want one batched call", lookup.calls, lookup.ids)
	}
	if !reflect.DeepEqual(got.IDs(), in.IDs()) || !reflect.DeepEqual(got.Links, in.Links) {
		t.Fatalf("Enrich() changed order or links: %+v", got)
	}

	p1 := got.Nodes[0]
	if *p1.Eigenvector != 0.9 || *p1.PageRank != 2.5 || *p1.Degree != 80 {
		t.Fatalf("p1 = %+v", p1.Centrality)
	}
	m1 := got.Nodes[1]
	if *m1.Eigenvector != 0.1 || *m1.PageRank != 0.7 || m1.Degree != nil {
		t.Fatalf("m1 = %+v, want existing eigenvector kept", m1.Centrality)
	}
	if got.Nodes[2].Centrality != (common.Centrality{}) {
		t.Fatalf("m2 = %+v, want untouched", got.Nodes[2].Centrality)
	}

	if in.Nodes[0].PageRank != nil {
		t.Fatalf("Enrich() modified its input")
	}
}

func TestEnrich_LookupErrorPropagates(t *testing.T) {
	boom := errors.New("service unavailable")
	in := viz.Payload{Nodes: []viz.Node{{ID: "p1"}}, Links: []viz.Link{}}

	_, err := NewEnricher(&stubLookup{err: boom}).Enrich(context.Background(), in)
	if !errors.Is(err, boom) {
		t.Fatalf("Enrich() error = %v, want %v", err, boom)
	}
}
