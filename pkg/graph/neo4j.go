package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/machinae/graphmem/pkg/errors"
)

// Store is the Neo4j-backed Querier. One Store owns one driver; sessions are
// opened per operation and closed before the call returns.
type Store struct {
	driver neo4j.DriverWithContext
}

// Connect creates the driver and verifies connectivity before returning.
// Authentication failures and unreachable hosts surface as ConnectionError.
func Connect(ctx context.Context, cfg ConnectionConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, &errors.ConnectionError{URI: cfg.URI, Err: err}
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, &errors.ConnectionError{URI: cfg.URI, Err: err}
	}

	return &Store{driver: driver}, nil
}

// Close releases the driver and all pooled connections.
func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

// Read runs a Cypher statement on a read session.
func (s *Store) Read(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	return s.run(ctx, cypher, params, neo4j.AccessModeRead)
}

// Write runs a Cypher statement on a write session.
func (s *Store) Write(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	return s.run(ctx, cypher, params, neo4j.AccessModeWrite)
}

func (s *Store) run(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) ([]Row, error) {
	if s.driver == nil {
		return nil, errors.ErrNotConnected
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, errors.NewStoreQueryError(cypher, err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, errors.NewStoreQueryError(cypher, err)
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
