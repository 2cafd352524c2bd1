package neo4j

import (
	"context"

	"github.com/cinegraph/backend/pkg/common"
)

// Query runs cypher in a read transaction so that generated write statements
// are rejected by the server. Errors are returned unchanged.
func (s *GraphDBStorage) Query(
	ctx context.Context,
	cypher string,
	params map[string]any,
) ([]common.Record, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	rows, err := collect(ctx, session, cypher, params)
	if err != nil {
		return nil, err
	}

	records := make([]common.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, convertRecord(row.Keys, row.Values))
	}
	return records, nil
}
