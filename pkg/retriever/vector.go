package retriever

import (
	"context"
	"fmt"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/graph"
)

const vectorSearchQuery = `CALL db.index.vector.queryNodes($index_name, $top_k, $query_vector)
YIELD node, score
`

// vectorRetriever ranks nodes by vector similarity, optionally running a
// graph-enrichment query over each hit.
type vectorRetriever struct {
	cfg      Config
	store    graph.Querier
	run      async.Runner
	enriched bool
}

func newVectorRetriever(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	if err := probeIndex(ctx, store, run, cfg.IndexName, "VECTOR"); err != nil {
		return nil, err
	}
	return &vectorRetriever{cfg: cfg, store: store, run: run}, nil
}

func newVectorCypherRetriever(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	if err := probeIndex(ctx, store, run, cfg.IndexName, "VECTOR"); err != nil {
		return nil, err
	}
	return &vectorRetriever{cfg: cfg, store: store, run: run, enriched: true}, nil
}

func (r *vectorRetriever) Search(ctx context.Context, queryText string, topK int) (Result, error) {
	vector, err := embedQuery(ctx, r.run, r.cfg, queryText)
	if err != nil {
		return Result{}, err
	}

	cypher := vectorSearchQuery
	if r.enriched {
		cypher += r.cfg.RetrievalQuery
	} else {
		cypher += "RETURN properties(node) AS node, score"
	}

	params := map[string]any{
		"index_name":   r.cfg.IndexName,
		"top_k":        topK,
		"query_vector": vector,
	}

	var rows []graph.Row
	if err := r.run.Do(ctx, func() (innerErr error) {
		rows, innerErr = r.store.Read(ctx, cypher, params)
		return innerErr
	}); err != nil {
		return Result{}, err
	}

	if r.enriched {
		return Result{Items: itemsFromRows(rows)}, nil
	}
	return Result{Items: itemsFromNodeRows(rows)}, nil
}

// embedQuery runs the embedder off the caller's goroutine and widens the
// vector to float64, which is what the bolt protocol carries.
func embedQuery(ctx context.Context, run async.Runner, cfg Config, queryText string) ([]float64, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("no embedder configured for %s search", cfg.Kind)
	}

	var raw []float32
	if err := run.Do(ctx, func() (innerErr error) {
		raw, innerErr = cfg.Embedder.EmbedQuery(ctx, queryText)
		return innerErr
	}); err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vector := make([]float64, len(raw))
	for i, v := range raw {
		vector[i] = float64(v)
	}
	return vector, nil
}
