package retriever

import (
	"context"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/graph"
)

// hybridSearchQuery unions vector and fulltext hits. Each branch normalizes
// its scores against the branch maximum before the merge, so neither index
// dominates purely through score scale. Duplicate nodes keep their best score.
const hybridSearchQuery = `CALL {
    CALL db.index.vector.queryNodes($vector_index_name, $top_k, $query_vector)
    YIELD node, score
    WITH collect({node: node, score: score}) AS hits, max(score) AS vmax
    UNWIND hits AS hit
    RETURN hit.node AS node, hit.score / vmax AS score
  UNION
    CALL db.index.fulltext.queryNodes($fulltext_index_name, $query_text, {limit: $top_k})
    YIELD node, score
    WITH collect({node: node, score: score}) AS hits, max(score) AS fmax
    UNWIND hits AS hit
    RETURN hit.node AS node, hit.score / fmax AS score
}
WITH node, max(score) AS score
ORDER BY score DESC
LIMIT $top_k
`

// hybridRetriever combines vector similarity with fulltext matching over a
// secondary index.
type hybridRetriever struct {
	cfg      Config
	store    graph.Querier
	run      async.Runner
	enriched bool
}

func newHybridRetriever(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	return buildHybrid(ctx, cfg, store, run, false)
}

func newHybridCypherRetriever(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	return buildHybrid(ctx, cfg, store, run, true)
}

func buildHybrid(ctx context.Context, cfg Config, store graph.Querier, run async.Runner, enriched bool) (Retriever, error) {
	if err := probeIndex(ctx, store, run, cfg.IndexName, "VECTOR"); err != nil {
		return nil, err
	}
	if err := probeIndex(ctx, store, run, cfg.FulltextIndexName, "FULLTEXT"); err != nil {
		return nil, err
	}
	return &hybridRetriever{cfg: cfg, store: store, run: run, enriched: enriched}, nil
}

func (r *hybridRetriever) Search(ctx context.Context, queryText string, topK int) (Result, error) {
	vector, err := embedQuery(ctx, r.run, r.cfg, queryText)
	if err != nil {
		return Result{}, err
	}

	cypher := hybridSearchQuery
	if r.enriched {
		cypher += r.cfg.RetrievalQuery
	} else {
		cypher += "RETURN properties(node) AS node, score"
	}

	params := map[string]any{
		"vector_index_name":   r.cfg.IndexName,
		"fulltext_index_name": r.cfg.FulltextIndexName,
		"top_k":               topK,
		"query_vector":        vector,
		"query_text":          queryText,
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
