// Package neo4j implements store.GraphStorage on a Neo4j database.
package neo4j

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinegraph/backend/pkg/store"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/singleflight"
)

// GraphDBStorage runs the pipeline's queries against Neo4j. The schema text
// is loaded once and shared by all callers until RefreshSchema.
type GraphDBStorage struct {
	driver   neo4jv5.DriverWithContext
	database string

	// largest id list sent in one centrality lookup
	lookupChunk int

	schemaGroup singleflight.Group
	schemaLock  sync.RWMutex
	schema      string
	schemaLoad  func(ctx context.Context) (string, error)
}

// NewGraphDBStorageParams configures the database connection.
type NewGraphDBStorageParams struct {
	URI      string
	Username string
	Password string
	// Database may be empty for the server default.
	Database string
}

type GraphDBStorageOption func(*GraphDBStorage)

// WithLookupChunk bounds the number of ids sent per centrality lookup.
func WithLookupChunk(n int) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.lookupChunk = n
	}
}

// NewGraphDBStorage opens a driver and verifies that the server is reachable.
func NewGraphDBStorage(
	ctx context.Context,
	params NewGraphDBStorageParams,
	opts ...GraphDBStorageOption,
) (*GraphDBStorage, error) {
	driver, err := neo4jv5.NewDriverWithContext(
		params.URI,
		neo4jv5.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", params.URI, err)
	}

	return NewGraphDBStorageWithDriver(driver, params.Database, opts...), nil
}

// NewGraphDBStorageWithDriver wraps an existing driver.
func NewGraphDBStorageWithDriver(
	driver neo4jv5.DriverWithContext,
	database string,
	opts ...GraphDBStorageOption,
) *GraphDBStorage {
	s := &GraphDBStorage{
		driver:      driver,
		database:    database,
		lookupChunk: 1000,
	}
	s.schemaLoad = s.loadSchema
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Close releases the driver and its connections.
func (s *GraphDBStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphDBStorage) readSession(ctx context.Context) neo4jv5.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jv5.SessionConfig{
		AccessMode:   neo4jv5.AccessModeRead,
		DatabaseName: s.database,
	})
}

func (s *GraphDBStorage) writeSession(ctx context.Context) neo4jv5.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jv5.SessionConfig{
		AccessMode:   neo4jv5.AccessModeWrite,
		DatabaseName: s.database,
	})
}

// collect runs cypher in one explicit transaction of the session's access
// mode and returns all rows. Explicit transactions are never retried by the
// driver.
func collect(
	ctx context.Context,
	session neo4jv5.SessionWithContext,
	cypher string,
	params map[string]any,
) ([]*neo4jv5.Record, error) {
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Close(ctx)

	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)
