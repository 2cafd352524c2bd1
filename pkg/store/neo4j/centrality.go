package neo4j

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/store"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const projectionName = "movie-graph"

const centralityLookupQuery = `
MATCH (n)
WHERE n.personId IN $ids OR n.movieId IN $ids
RETURN coalesce(n.personId, n.movieId) AS id,
       n.eigenvectorCentrality AS eigenvectorCentrality,
       n.pageRank AS pageRank,
       n.degreeCentrality AS degreeCentrality
`

const (
	dropProjectionQuery = `CALL gds.graph.drop($name, false) YIELD graphName RETURN graphName`
	projectQuery        = `
CALL gds.graph.project(
  $name,
  ['Person', 'Movie'],
  {
    ACTED_IN: {orientation: 'UNDIRECTED'},
    DIRECTED: {orientation: 'UNDIRECTED'}
  }
) YIELD nodeCount, relationshipCount
RETURN nodeCount, relationshipCount
`
	eigenvectorQuery = `
CALL gds.eigenvector.write($name, {
  writeProperty: 'eigenvectorCentrality',
  maxIterations: 20,
  concurrency: 1
})
YIELD nodePropertiesWritten, ranIterations
RETURN nodePropertiesWritten, ranIterations
`
	pageRankQuery = `
CALL gds.pageRank.write($name, {
  writeProperty: 'pageRank',
  maxIterations: 20,
  dampingFactor: 0.85,
  concurrency: 1
})
YIELD nodePropertiesWritten, ranIterations
RETURN nodePropertiesWritten, ranIterations
`
	// apoc.periodic.iterate keeps each transaction within memory limits
	degreeQuery = `
CALL apoc.periodic.iterate(
  'MATCH (n:%s) RETURN n',
  'SET n.degreeCentrality = count { (n)--() }',
  {batchSize: 10000, parallel: false}
)
YIELD total, committedOperations
RETURN total, committedOperations
`
)

// GetCentrality looks up the stored scores for ids in chunks of lookupChunk.
func (s *GraphDBStorage) GetCentrality(
	ctx context.Context,
	ids []string,
) (map[string]common.Centrality, error) {
	ids = store.DedupeStrings(ids)
	out := make(map[string]common.Centrality, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	err := store.ChunkRange(len(ids), s.lookupChunk, func(start, end int) error {
		rows, err := collect(ctx, session, centralityLookupQuery, map[string]any{
			"ids": lookupIDs(ids[start:end]),
		})
		if err != nil {
			return err
		}
		for _, r := range rows {
			id, _ := r.Get("id")
			if id == nil {
				continue
			}
			out[fmt.Sprint(id)] = common.Centrality{
				Eigenvector: floatField(r, common.EigenvectorKey),
				PageRank:    floatField(r, common.PageRankKey),
				Degree:      floatField(r, common.DegreeKey),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeCentrality writes the scores of one algorithm onto every Person and
// Movie node. Graph algorithms run on a temporary undirected projection that
// is dropped before and after the run.
func (s *GraphDBStorage) ComputeCentrality(
	ctx context.Context,
	algorithm common.CentralityAlgorithm,
) (common.CentralityRun, error) {
	run := common.CentralityRun{Algorithm: algorithm}
	start := time.Now()

	switch algorithm {
	case common.AlgorithmEigenvector, common.AlgorithmPageRank:
		query := eigenvectorQuery
		if algorithm == common.AlgorithmPageRank {
			query = pageRankQuery
		}
		written, iterations, err := s.runProjected(ctx, query)
		if err != nil {
			return run, fmt.Errorf("failed to compute %s centrality: %w", algorithm, err)
		}
		run.PropertiesWritten = written
		run.Iterations = iterations

	case common.AlgorithmDegree:
		for _, label := range []common.EntityKind{common.KindPerson, common.KindMovie} {
			res, err := s.execute(ctx, fmt.Sprintf(degreeQuery, label), nil)
			if err != nil {
				return run, fmt.Errorf("failed to compute degree centrality for %s: %w", label, err)
			}
			if len(res.Records) > 0 {
				n, _, _ := neo4jv5.GetRecordValue[int64](res.Records[0], "committedOperations")
				run.PropertiesWritten += n
			}
		}

	default:
		return run, fmt.Errorf("unknown centrality algorithm %q", algorithm)
	}

	run.DurationMs = time.Since(start).Milliseconds()
	logger.Info("[Neo4j] Centrality computed",
		"algorithm", algorithm,
		"written", run.PropertiesWritten,
		"iterations", run.Iterations,
		"duration_ms", run.DurationMs,
	)
	return run, nil
}

func (s *GraphDBStorage) runProjected(ctx context.Context, query string) (int64, int64, error) {
	params := map[string]any{"name": projectionName}

	if _, err := s.execute(ctx, dropProjectionQuery, params); err != nil {
		return 0, 0, fmt.Errorf("drop projection: %w", err)
	}
	if _, err := s.execute(ctx, projectQuery, params); err != nil {
		return 0, 0, fmt.Errorf("project graph: %w", err)
	}
	defer func() {
		// a fresh context so a canceled run still cleans up
		cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if _, err := s.execute(cleanup, dropProjectionQuery, params); err != nil {
			logger.Warn("[Neo4j] Failed to drop projection", "name", projectionName, "err", err)
		}
	}()

	res, err := s.execute(ctx, query, params)
	if err != nil {
		return 0, 0, err
	}
	if len(res.Records) == 0 {
		return 0, 0, fmt.Errorf("algorithm returned no summary")
	}
	written, _, _ := neo4jv5.GetRecordValue[int64](res.Records[0], "nodePropertiesWritten")
	iterations, _, _ := neo4jv5.GetRecordValue[int64](res.Records[0], "ranIterations")
	return written, iterations, nil
}

// TopByCentrality returns the highest scoring nodes of kind.
func (s *GraphDBStorage) TopByCentrality(
	ctx context.Context,
	kind common.EntityKind,
	algorithm common.CentralityAlgorithm,
	limit int,
) ([]common.RankedEntity, error) {
	prop, err := store.CentralityProperty(algorithm)
	if err != nil {
		return nil, err
	}
	label, labelKey, err := kindLabel(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
MATCH (n:%s)
WHERE n.%s IS NOT NULL
RETURN n.%s AS label, n.year AS year, n.%s AS score
ORDER BY score DESC
LIMIT $limit
`, label, prop, labelKey, prop)

	session := s.readSession(ctx)
	defer session.Close(ctx)

	rows, err := collect(ctx, session, query, map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, err
	}

	out := make([]common.RankedEntity, 0, len(rows))
	for _, r := range rows {
		name, _ := r.Get("label")
		year, _ := r.Get("year")
		entity := common.RankedEntity{Year: year}
		if name != nil {
			entity.Label = fmt.Sprint(name)
		}
		if score := floatField(r, "score"); score != nil {
			entity.Score = *score
		}
		out = append(out, entity)
	}
	return out, nil
}

// SummarizeCentrality aggregates one score over all nodes of kind.
func (s *GraphDBStorage) SummarizeCentrality(
	ctx context.Context,
	kind common.EntityKind,
	algorithm common.CentralityAlgorithm,
) (common.ScoreSummary, error) {
	var summary common.ScoreSummary

	prop, err := store.CentralityProperty(algorithm)
	if err != nil {
		return summary, err
	}
	label, _, err := kindLabel(kind)
	if err != nil {
		return summary, err
	}

	query := fmt.Sprintf(`
MATCH (n:%s)
WHERE n.%s IS NOT NULL
RETURN count(n) AS count,
       min(n.%s) AS min,
       max(n.%s) AS max,
       avg(n.%s) AS avg,
       percentileCont(n.%s, 0.5) AS median,
       percentileCont(n.%s, 0.9) AS p90
`, label, prop, prop, prop, prop, prop, prop)

	session := s.readSession(ctx)
	defer session.Close(ctx)

	rows, err := collect(ctx, session, query, nil)
	if err != nil {
		return summary, err
	}
	if len(rows) == 0 {
		return summary, nil
	}

	r := rows[0]
	summary.Count, _, _ = neo4jv5.GetRecordValue[int64](r, "count")
	summary.Min = deref(floatField(r, "min"))
	summary.Max = deref(floatField(r, "max"))
	summary.Avg = deref(floatField(r, "avg"))
	summary.Median = deref(floatField(r, "median"))
	summary.P90 = deref(floatField(r, "p90"))
	return summary, nil
}

func (s *GraphDBStorage) execute(
	ctx context.Context,
	query string,
	params map[string]any,
) (*neo4jv5.EagerResult, error) {
	return neo4jv5.ExecuteQuery(ctx, s.driver, query, params,
		neo4jv5.EagerResultTransformer,
		neo4jv5.ExecuteQueryWithDatabase(s.database),
		neo4jv5.ExecuteQueryWithWritersRouting(),
	)
}

func kindLabel(kind common.EntityKind) (string, string, error) {
	switch kind {
	case common.KindPerson:
		return "Person", common.NameKey, nil
	case common.KindMovie:
		return "Movie", common.TitleKey, nil
	default:
		return "", "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// floatField reads a numeric column as float64. Integers are widened, null
// and missing columns are nil.
func floatField(r *neo4jv5.Record, key string) *float64 {
	v, ok := r.Get(key)
	if !ok {
		return nil
	}
	return toFloat(v)
}

func toFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
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

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// lookupIDs lists every id as a string and, when it parses as one, also as an
// integer, so nodes keyed either way are found.
func lookupIDs(in []string) []any {
	out := make([]any, 0, len(in)*2)
	for _, v := range in {
		out = append(out, v)
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}
