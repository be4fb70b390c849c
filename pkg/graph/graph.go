/*
Package graph wraps the Neo4j driver behind a narrow Cypher-execution
contract. Everything above this package speaks rows (ordered maps of column
name to value) and never sees driver types, which keeps retrievers and the
memory manager testable against a scripted stub.
*/
package graph

import (
	"context"

	"github.com/machinae/graphmem/pkg/errors"
)

// ConnectionConfig holds the fields required to reach the store. All three
// are required together; validation happens upstream.
type ConnectionConfig struct {
	URI      string
	Username string
	Password string
}

// Complete reports whether every connection field is set.
func (c ConnectionConfig) Complete() bool {
	return c.URI != "" && c.Username != "" && c.Password != ""
}

// Validate returns a ConfigurationError naming the missing fields.
func (c ConnectionConfig) Validate() error {
	if c.Complete() {
		return nil
	}
	return errors.NewConfigurationError(
		"connection",
		"uri, username and password are all required; set them via options or the NEO4J_URI, NEO4J_USERNAME and NEO4J_PASSWORD environment variables",
	)
}

// Row is a single result record keyed by column name.
type Row = map[string]any

// Querier executes parameterized Cypher against the store. Read and Write
// differ only in routing; both block at the driver level and must be
// dispatched through an async.Runner by the caller.
type Querier interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
}
