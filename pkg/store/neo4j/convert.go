package neo4j

import (
	"fmt"
	"maps"

	"github.com/cinegraph/backend/pkg/common"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// convertRecord turns one driver row into a common.Record.
//
// Nodes become node values. Relationships become edges whose endpoints are
// the properties of the nodes with the matching element ids found anywhere in
// the same row, or empty mappings when the row does not carry them. Paths are
// expanded into their alternating node and edge fields under "key.i" and
// lists holding graph values are expanded element by element the same way.
// Maps with a personId or movieId are treated as nodes.
func convertRecord(keys []string, values []any) common.Record {
	index := map[string]map[string]any{}
	for _, v := range values {
		indexNodes(v, index)
	}

	rec := common.Record{Fields: make([]common.Field, 0, len(values))}
	for i, v := range values {
		key := fmt.Sprintf("%d", i)
		if i < len(keys) {
			key = keys[i]
		}
		rec.Fields = appendFields(rec.Fields, key, v, index)
	}
	return rec
}

func indexNodes(v any, index map[string]map[string]any) {
	switch t := v.(type) {
	case dbtype.Node:
		index[t.ElementId] = t.Props
	case dbtype.Path:
		for _, n := range t.Nodes {
			index[n.ElementId] = n.Props
		}
	case []any:
		for _, e := range t {
			indexNodes(e, index)
		}
	}
}

func appendFields(
	fields []common.Field,
	key string,
	v any,
	index map[string]map[string]any,
) []common.Field {
	switch t := v.(type) {
	case dbtype.Node:
		return append(fields, common.Field{Key: key, Value: common.NodeValue(maps.Clone(t.Props))})

	case dbtype.Relationship:
		return append(fields, common.Field{Key: key, Value: edgeValue(t, index)})

	case dbtype.Path:
		pos := 0
		for i, n := range t.Nodes {
			fields = append(fields, common.Field{
				Key:   fmt.Sprintf("%s.%d", key, pos),
				Value: common.NodeValue(maps.Clone(n.Props)),
			})
			pos++
			if i < len(t.Relationships) {
				fields = append(fields, common.Field{
					Key:   fmt.Sprintf("%s.%d", key, pos),
					Value: edgeValue(t.Relationships[i], index),
				})
				pos++
			}
		}
		return fields

	case []any:
		if !containsGraphValue(t) {
			return append(fields, common.Field{Key: key, Value: common.ScalarValue(t)})
		}
		for i, e := range t {
			fields = appendFields(fields, fmt.Sprintf("%s.%d", key, i), e, index)
		}
		return fields

	case map[string]any:
		if hasIdentity(t) {
			return append(fields, common.Field{Key: key, Value: common.NodeValue(maps.Clone(t))})
		}
		return append(fields, common.Field{Key: key, Value: common.ScalarValue(t)})

	default:
		return append(fields, common.Field{Key: key, Value: common.ScalarValue(v)})
	}
}

func edgeValue(r dbtype.Relationship, index map[string]map[string]any) common.Value {
	return common.EdgeValue(endpoint(r.StartElementId, index), r.Type, endpoint(r.EndElementId, index))
}

func endpoint(elementID string, index map[string]map[string]any) map[string]any {
	if props, ok := index[elementID]; ok {
		return maps.Clone(props)
	}
	return map[string]any{}
}

func containsGraphValue(list []any) bool {
	for _, e := range list {
		switch t := e.(type) {
		case dbtype.Node, dbtype.Relationship, dbtype.Path:
			return true
		case []any:
			if containsGraphValue(t) {
				return true
			}
		case map[string]any:
			if hasIdentity(t) {
				return true
			}
		}
	}
	return false
}

func hasIdentity(m map[string]any) bool {
	if _, ok := m[common.PersonIDKey]; ok {
		return true
	}
	_, ok := m[common.MovieIDKey]
	return ok
}
