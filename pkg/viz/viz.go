// Package viz shapes query records into the node and link lists of a
// force-directed graph.
package viz

import (
	"fmt"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
)

// Node is a deduplicated graph vertex.
type Node struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Type  common.EntityKind `json:"type"`
	Year  any               `json:"year,omitempty"`
	common.Centrality
}

// Link is a directed, labeled connection between two node ids. Links are not
// deduplicated.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Payload is what the visualization consumes.
type Payload struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Empty returns a payload whose lists encode as [] rather than null.
func Empty() Payload {
	return Payload{Nodes: []Node{}, Links: []Link{}}
}

// NodeID derives the identity of a node mapping: personId when present,
// otherwise movieId. ok is false for mappings with neither.
func NodeID(props map[string]any) (id string, kind common.EntityKind, ok bool) {
	if v, found := props[common.PersonIDKey]; found && v != nil {
		return fmt.Sprint(v), common.KindPerson, true
	}
	if v, found := props[common.MovieIDKey]; found && v != nil {
		return fmt.Sprint(v), common.KindMovie, true
	}
	return "", "", false
}

func newNode(id string, kind common.EntityKind, props map[string]any) Node {
	n := Node{ID: id, Type: kind}
	if name, ok := props[common.NameKey]; ok && name != nil {
		n.Label = fmt.Sprint(name)
	} else if title, ok := props[common.TitleKey]; ok && title != nil {
		n.Label = fmt.Sprint(title)
	}
	if kind == common.KindMovie {
		if year, ok := props[common.YearKey]; ok {
			n.Year = year
		}
	}
	n.Eigenvector = score(props, common.EigenvectorKey)
	n.PageRank = score(props, common.PageRankKey)
	n.Degree = score(props, common.DegreeKey)
	return n
}

// Format builds the payload for records. Nodes appear in first-seen order and
// keep the attributes of their first sighting. Links appear in encounter
// order. Edges whose endpoint mapping has no identity are dropped. Endpoints
// that were never returned as node fields are added after all records, in
// link order with the source before the target, so every link references a
// node in the payload.
func Format(records []common.Record) Payload {
	out := Empty()
	seen := map[string]struct{}{}

	type pending struct {
		id    string
		kind  common.EntityKind
		props map[string]any
	}
	var endpoints []pending

	for _, rec := range records {
		for _, f := range rec.Fields {
			switch f.Value.Kind {
			case common.ValueNode:
				id, kind, ok := NodeID(f.Value.Props)
				if !ok {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out.Nodes = append(out.Nodes, newNode(id, kind, f.Value.Props))

			case common.ValueEdge:
				e := f.Value.Edge
				if e == nil {
					continue
				}
				src, srcKind, srcOK := NodeID(e.Source)
				tgt, tgtKind, tgtOK := NodeID(e.Target)
				if !srcOK || !tgtOK {
					logger.Debug("[Viz] Dropping edge without endpoint identity", "field", f.Key, "label", e.Label)
					continue
				}
				out.Links = append(out.Links, Link{Source: src, Target: tgt, Label: e.Label})
				endpoints = append(endpoints,
					pending{id: src, kind: srcKind, props: e.Source},
					pending{id: tgt, kind: tgtKind, props: e.Target},
				)
			}
		}
	}

	for _, p := range endpoints {
		if _, ok := seen[p.id]; ok {
			continue
		}
		seen[p.id] = struct{}{}
		out.Nodes = append(out.Nodes, newNode(p.id, p.kind, p.props))
	}

	return out
}

// IDs returns the node ids of p in order.
func (p Payload) IDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func score(props map[string]any, key string) *float64 {
	var f float64
	switch t := props[key].(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	default:
		return nil
	}
	return &f
}
