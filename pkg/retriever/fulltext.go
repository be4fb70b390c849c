package retriever

import (
	"context"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/graph"
)

const fulltextSearchQuery = `CALL db.index.fulltext.queryNodes($index_name, $query_text, {limit: $top_k})
YIELD node, score
`

// fulltextSearcher performs Lucene fulltext search, optionally filtering
// stop words from the query and optionally enriching hits with a traversal.
type fulltextSearcher struct {
	cfg   Config
	store graph.Querier
	run   async.Runner
}

func newFulltextRetriever(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	if err := probeIndex(ctx, store, run, cfg.IndexName, "FULLTEXT"); err != nil {
		return nil, err
	}
	return &fulltextSearcher{cfg: cfg, store: store, run: run}, nil
}

func (r *fulltextSearcher) Search(ctx context.Context, queryText string, topK int) (Result, error) {
	if r.cfg.EffectiveFilterStopWords() {
		queryText = FilterStopWords(queryText)
	}
	queryText = SanitizeLuceneQuery(queryText)

	cypher := fulltextSearchQuery
	if r.cfg.Enriched() {
		cypher += r.cfg.RetrievalQuery
	} else {
		cypher += "RETURN properties(node) AS node, score"
	}

	params := map[string]any{
		"index_name": r.cfg.IndexName,
		"query_text": queryText,
		"top_k":      topK,
	}

	var rows []graph.Row
	if err := r.run.Do(ctx, func() (innerErr error) {
		rows, innerErr = r.store.Read(ctx, cypher, params)
		return innerErr
	}); err != nil {
		return Result{}, err
	}

	if r.cfg.Enriched() {
		return Result{Items: itemsFromRows(rows)}, nil
	}
	return Result{Items: itemsFromNodeRows(rows)}, nil
}
