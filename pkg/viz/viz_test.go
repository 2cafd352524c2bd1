package viz

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
)

func record(fields ...common.Field) common.Record {
	return common.Record{Fields: fields}
}

func field(key string, v common.Value) common.Field {
	return common.Field{Key: key, Value: v}
}

func TestFormat_PersonNode(t *testing.T) {
	got := Format([]common.Record{
		record(field("p", common.NodeValue(map[string]any{"personId": "p1", "name": "Tom Hanks"}))),
	})

	want := []Node{{ID: "p1", Label: "Tom Hanks", Type: common.KindPerson}}
	if !reflect.DeepEqual(got.Nodes, want) {
		t.Fatalf("Format() nodes = %+v, want %+v", got.Nodes, want)
	}
	if len(got.Links) != 0 {
		t.Fatalf("Format() links = %+v, want none", got.Links)
	}
}

func TestFormat_NodeAndEdge(t *testing.T) {
	got := Format([]common.Record{
		record(
			field("m", common.NodeValue(map[string]any{"movieId": "m1", "title": "Big", "year": int64(1988)})),
			field("r", common.EdgeValue(
				map[string]any{"personId": "p1"},
				"ACTED_IN",
				map[string]any{"movieId": "m1"},
			)),
		),
	})

	wantNodes := []Node{
		{ID: "m1", Label: "Big", Type: common.KindMovie, Year: int64(1988)},
		{ID: "p1", Type: common.KindPerson},
	}
	wantLinks := []Link{{Source: "p1", Target: "m1", Label: "ACTED_IN"}}

	if !reflect.DeepEqual(got.Nodes, wantNodes) {
		t.Fatalf("Format() nodes = %+v, want %+v", got.Nodes, wantNodes)
	}
	if !reflect.DeepEqual(got.Links, wantLinks) {
		t.Fatalf("Format() links = %+v, want %+v", got.Links, wantLinks)
	}
}

func TestFormat_FirstSeenWins(t *testing.T) {
	got := Format([]common.Record{
		record(field("m", common.NodeValue(map[string]any{
			"movieId": "m1", "title": "Big", "year": "1988", "eigenvectorCentrality": 0.4,
		}))),
		record(field("m", common.NodeValue(map[string]any{
			"movieId": "m1", "title": "Big (Director's Cut)", "year": "1989", "eigenvectorCentrality": 0.9,
		}))),
	})

	if len(got.Nodes) != 1 {
		t.Fatalf("Format() nodes = %d, want 1", len(got.Nodes))
	}
	n := got.Nodes[0]
	if n.Label != "Big" || n.Year != "1988" || n.Eigenvector == nil || *n.Eigenvector != 0.4 {
		t.Fatalf("Format() node = %+v, want first sighting attributes", n)
	}
}

func TestFormat_OrderStable(t *testing.T) {
	records := []common.Record{
		record(
			field("p", common.NodeValue(map[string]any{"personId": "p2", "name": "Meg Ryan"})),
			field("m", common.NodeValue(map[string]any{"movieId": "m2", "title": "Sleepless in Seattle"})),
		),
		record(
			field("p", common.NodeValue(map[string]any{"personId": "p1", "name": "Tom Hanks"})),
			field("r", common.EdgeValue(map[string]any{"personId": "p1"}, "ACTED_IN", map[string]any{"movieId": "m2"})),
			field("m", common.NodeValue(map[string]any{"movieId": "m2", "title": "Sleepless in Seattle"})),
		),
		record(
			field("r", common.EdgeValue(map[string]any{"personId": "p2"}, "ACTED_IN", map[string]any{"movieId": "m2"})),
		),
	}

	first := Format(records)
	second := Format(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Format() not deterministic: %+v vs %+v", first, second)
	}

	if ids := first.IDs(); !reflect.DeepEqual(ids, []string{"p2", "m2", "p1"}) {
		t.Fatalf("node order = %v, want [p2 m2 p1]", ids)
	}
	wantLinks := []Link{
		{Source: "p1", Target: "m2", Label: "ACTED_IN"},
		{Source: "p2", Target: "m2", Label: "ACTED_IN"},
	}
	if !reflect.DeepEqual(first.Links, wantLinks) {
		t.Fatalf("links = %+v, want %+v", first.Links, wantLinks)
	}
}

func TestFormat_DuplicateLinksKept(t *testing.T) {
	edge := common.EdgeValue(map[string]any{"personId": "p1"}, "DIRECTED", map[string]any{"movieId": "m1"})
	got := Format([]common.Record{record(field("r", edge)), record(field("r", edge))})
	if len(got.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(got.Links))
	}
	if len(got.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(got.Nodes))
	}
}

func TestFormat_DanglingEndpoints(t *testing.T) {
	got := Format([]common.Record{
		record(
			field("r", common.EdgeValue(map[string]any{}, "ACTED_IN", map[string]any{"movieId": "m1"})),
			field("r2", common.EdgeValue(
				map[string]any{"personId": "p1", "name": "Tom Hanks"},
				"ACTED_IN",
				map[string]any{"movieId": "m1", "title": "Big"},
			)),
		),
	})

	wantNodes := []Node{
		{ID: "p1", Label: "Tom Hanks", Type: common.KindPerson},
		{ID: "m1", Label: "Big", Type: common.KindMovie},
	}
	if !reflect.DeepEqual(got.Nodes, wantNodes) {
		t.Fatalf("nodes = %+v, want %+v", got.Nodes, wantNodes)
	}
	if len(got.Links) != 1 {
		t.Fatalf("links = %+v, want only the edge with identified endpoints", got.Links)
	}

	ids := map[string]bool{}
	for _, n := range got.Nodes {
		ids[n.ID] = true
	}
	for _, l := range got.Links {
		if !ids[l.Source] || !ids[l.Target] {
			t.Fatalf("link %+v references a missing node", l)
		}
	}
}

func TestFormat_IgnoresScalarsAndUnidentifiedNodes(t *testing.T) {
	got := Format([]common.Record{
		record(
			field("count", common.ScalarValue(int64(3))),
			field("genre", common.NodeValue(map[string]any{"name": "Drama"})),
			field("roles", common.ScalarValue([]any{"Josh"})),
		),
	})
	if len(got.Nodes) != 0 || len(got.Links) != 0 {
		t.Fatalf("Format() = %+v, want empty", got)
	}
}

func TestFormat_IDPreferenceAndStringify(t *testing.T) {
	got := Format([]common.Record{
		record(field("x", common.NodeValue(map[string]any{"personId": int64(7), "movieId": "m9", "name": "Both"}))),
		record(field("y", common.NodeValue(map[string]any{"movieId": int64(12), "title": "Numbered", "year": "2001"}))),
		record(field("z", common.NodeValue(map[string]any{"personId": "p3", "year": "1956"}))),
	})

	want := []Node{
		{ID: "7", Label: "Both", Type: common.KindPerson},
		{ID: "12", Label: "Numbered", Type: common.KindMovie, Year: "2001"},
		{ID: "p3", Type: common.KindPerson},
	}
	if !reflect.DeepEqual(got.Nodes, want) {
		t.Fatalf("nodes = %+v, want %+v", got.Nodes, want)
	}
}

func TestPayloadJSON(t *testing.T) {
	b, err := json.Marshal(Empty())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"nodes":[],"links":[]}` {
		t.Fatalf("Marshal(Empty()) = %s", b)
	}

	pr := 0.12
	b, err = json.Marshal(Node{ID: "p1", Label: "Tom Hanks", Type: common.KindPerson, Centrality: common.Centrality{PageRank: &pr}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":"p1","label":"Tom Hanks","type":"Person","pageRank":0.12}`
	if string(b) != want {
		t.Fatalf("Marshal(node) = %s, want %s", b, want)
	}
}
