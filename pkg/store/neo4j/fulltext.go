package neo4j

import (
	"context"
	"strings"

	"github.com/cinegraph/backend/pkg/common"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const fullTextQuery = `
CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
RETURN node[$property] AS match, score
LIMIT 1
`

const luceneSpecial = `+-&|!(){}[]^"~*?:\/`

// escapeLucene backslash-escapes every Lucene query syntax character in s.
func escapeLucene(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(luceneSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fuzzyQuery builds a Lucene query in which every whitespace separated term
// of text is escaped and marked fuzzy.
func fuzzyQuery(text string) string {
	terms := strings.Fields(text)
	for i, t := range terms {
		terms[i] = escapeLucene(t) + "~"
	}
	return strings.Join(terms, " ")
}

// FullTextSearch returns the best fuzzy hit for text in index. Blank text and
// hits without the property yield nil.
func (s *GraphDBStorage) FullTextSearch(
	ctx context.Context,
	index string,
	property string,
	text string,
) (*common.Match, error) {
	query := fuzzyQuery(text)
	if query == "" {
		return nil, nil
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	rows, err := collect(ctx, session, fullTextQuery, map[string]any{
		"index":    index,
		"query":    query,
		"property": property,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	match, isNil, err := neo4jv5.GetRecordValue[string](rows[0], "match")
	if err != nil || isNil {
		// null or non-string property
		return nil, nil
	}
	score, _, err := neo4jv5.GetRecordValue[float64](rows[0], "score")
	if err != nil {
		return nil, err
	}
	return &common.Match{Text: match, Score: score}, nil
}
