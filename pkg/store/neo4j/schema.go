package neo4j

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cinegraph/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

const (
	nodePropertiesQuery = `
CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName, propertyTypes
RETURN nodeLabels, propertyName, propertyTypes
`
	relPropertiesQuery = `
CALL db.schema.relTypeProperties() YIELD relType, propertyName, propertyTypes
RETURN relType, propertyName, propertyTypes
`
	visualizationQuery = `
CALL db.schema.visualization() YIELD nodes, relationships
RETURN nodes, relationships
`
)

type propertyRow struct {
	owner string
	name  string
	types []string
}

type relPattern struct {
	from string
	rel  string
	to   string
}

// Schema returns the cached schema description, loading it on first use.
// Concurrent first callers share one load, which is not cancelled with the
// caller that started it.
func (s *GraphDBStorage) Schema(ctx context.Context) (string, error) {
	s.schemaLock.RLock()
	cached := s.schema
	s.schemaLock.RUnlock()
	if cached != "" {
		return cached, nil
	}

	v, err, _ := s.schemaGroup.Do("schema", func() (any, error) {
		text, err := s.schemaLoad(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		s.schemaLock.Lock()
		s.schema = text
		s.schemaLock.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// RefreshSchema drops the cached schema and loads it again.
func (s *GraphDBStorage) RefreshSchema(ctx context.Context) (string, error) {
	s.schemaLock.Lock()
	s.schema = ""
	s.schemaLock.Unlock()
	return s.Schema(ctx)
}

func (s *GraphDBStorage) loadSchema(ctx context.Context) (string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	nodeRows, err := collect(ctx, session, nodePropertiesQuery, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read node properties: %w", err)
	}
	relRows, err := collect(ctx, session, relPropertiesQuery, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read relationship properties: %w", err)
	}
	vizRows, err := collect(ctx, session, visualizationQuery, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read relationship patterns: %w", err)
	}

	var nodes, rels []propertyRow
	for _, r := range nodeRows {
		labels, _ := r.Get("nodeLabels")
		nodes = append(nodes, newPropertyRow(joinLabels(labels), r.Values[1], r.Values[2]))
	}
	for _, r := range relRows {
		relType, _ := r.Get("relType")
		name, _ := relType.(string)
		rels = append(rels, newPropertyRow(trimRelType(name), r.Values[1], r.Values[2]))
	}

	var patterns []relPattern
	for _, r := range vizRows {
		vNodes, _ := r.Get("nodes")
		vRels, _ := r.Get("relationships")
		patterns = append(patterns, visualizationPatterns(vNodes, vRels)...)
	}

	text := formatSchema(nodes, rels, patterns)
	logger.Debug("[Neo4j] Loaded schema", "labels", len(nodes), "relationships", len(patterns))
	return text, nil
}

func newPropertyRow(owner string, name any, types any) propertyRow {
	row := propertyRow{owner: owner}
	row.name, _ = name.(string)
	if list, ok := types.([]any); ok {
		for _, t := range list {
			if s, ok := t.(string); ok {
				row.types = append(row.types, s)
			}
		}
	}
	return row
}

func joinLabels(v any) string {
	list, _ := v.([]any)
	labels := make([]string, 0, len(list))
	for _, l := range list {
		if s, ok := l.(string); ok {
			labels = append(labels, s)
		}
	}
	return strings.Join(labels, ":")
}

// trimRelType turns ":`ACTED_IN`" into "ACTED_IN".
func trimRelType(s string) string {
	s = strings.TrimPrefix(s, ":")
	return strings.Trim(s, "`")
}

func visualizationPatterns(nodes any, rels any) []relPattern {
	labels := map[string]string{}
	nodeList, _ := nodes.([]any)
	for _, n := range nodeList {
		node, ok := n.(dbtype.Node)
		if !ok {
			continue
		}
		label := strings.Join(node.Labels, ":")
		if name, ok := node.Props["name"].(string); ok && label == "" {
			label = name
		}
		labels[node.ElementId] = label
	}

	var out []relPattern
	relList, _ := rels.([]any)
	for _, r := range relList {
		rel, ok := r.(dbtype.Relationship)
		if !ok {
			continue
		}
		out = append(out, relPattern{
			from: labels[rel.StartElementId],
			rel:  rel.Type,
			to:   labels[rel.EndElementId],
		})
	}
	return out
}

func propertyType(types []string) string {
	if len(types) == 0 {
		return "ANY"
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		u := strings.ToUpper(t)
		if strings.HasSuffix(u, "ARRAY") {
			u = "LIST"
		}
		out = append(out, u)
	}
	return strings.Join(out, "|")
}

// formatSchema renders the schema description used in query generation.
// Owners, properties and patterns are sorted so the text is stable.
func formatSchema(nodes, rels []propertyRow, patterns []relPattern) string {
	var b strings.Builder
	b.WriteString("Node properties:\n")
	writeProperties(&b, nodes)
	b.WriteString("Relationship properties:\n")
	writeProperties(&b, rels)
	b.WriteString("The relationships:\n")

	lines := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p.from == "" || p.rel == "" || p.to == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("(:%s)-[:%s]->(:%s)", p.from, p.rel, p.to))
	}
	slices.Sort(lines)
	for _, l := range slices.Compact(lines) {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeProperties(b *strings.Builder, rows []propertyRow) {
	byOwner := map[string][]string{}
	var owners []string
	for _, r := range rows {
		if r.owner == "" {
			continue
		}
		if _, ok := byOwner[r.owner]; !ok {
			owners = append(owners, r.owner)
			byOwner[r.owner] = nil
		}
		if r.name != "" {
			byOwner[r.owner] = append(byOwner[r.owner], fmt.Sprintf("%s: %s", r.name, propertyType(r.types)))
		}
	}
	slices.Sort(owners)
	for _, o := range owners {
		props := byOwner[o]
		slices.Sort(props)
		fmt.Fprintf(b, "%s {%s}\n", o, strings.Join(props, ", "))
	}
}
