package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/graph"
)

// Item is one ranked hit: the primary content plus whatever metadata the
// search surfaced (score, enrichment columns).
type Item struct {
	Content  string
	Metadata map[string]any
}

// Result is an ordered list of hits, best first.
type Result struct {
	Items []Item
}

// Retriever executes one search strategy against the store. Search blocks at
// the driver level; implementations dispatch through their Runner so the
// caller's goroutine never stalls.
type Retriever interface {
	Search(ctx context.Context, queryText string, topK int) (Result, error)
}

type variantKey struct {
	kind     Kind
	enriched bool
}

type builder func(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error)

// variants is the full dispatch table. Unsupported combinations are prevented
// by Config.Validate and are not re-checked here.
var variants = map[variantKey]builder{
	{KindVector, false}:   newVectorRetriever,
	{KindVector, true}:    newVectorCypherRetriever,
	{KindHybrid, false}:   newHybridRetriever,
	{KindHybrid, true}:    newHybridCypherRetriever,
	{KindFulltext, false}: newFulltextRetriever,
	{KindFulltext, true}:  newFulltextRetriever,
}

// New selects and constructs the variant for the configuration. Construction
// performs a blocking metadata probe against the store, dispatched through
// the runner.
func New(ctx context.Context, cfg Config, store graph.Querier, run async.Runner) (Retriever, error) {
	build, ok := variants[variantKey{cfg.Kind, cfg.Enriched()}]
	if !ok {
		return nil, fmt.Errorf("no retriever variant for index type %q", cfg.Kind)
	}
	return build(ctx, cfg, store, run)
}

// probeIndex verifies that a named index exists and has the expected type
// ("VECTOR" or "FULLTEXT"). One blocking round trip per index.
func probeIndex(ctx context.Context, store graph.Querier, run async.Runner, name, wantType string) error {
	var rows []graph.Row

	err := run.Do(ctx, func() (innerErr error) {
		rows, innerErr = store.Read(ctx, "SHOW INDEXES YIELD name, type RETURN name, type", nil)
		return innerErr
	})
	if err != nil {
		return fmt.Errorf("failed to probe index %q: %w", name, err)
	}

	for _, row := range rows {
		if row["name"] == name {
			if got, _ := row["type"].(string); !strings.EqualFold(got, wantType) {
				return fmt.Errorf("index %q has type %v, expected %s", name, row["type"], wantType)
			}
			return nil
		}
	}

	return fmt.Errorf("index %q not found in store", name)
}

// itemFromNode builds an item from a node property map plus the index score.
// The node's "text" property becomes the content; remaining properties become
// metadata. Nodes without a text property contribute their full property map
// as content.
func itemFromNode(node map[string]any, score any) Item {
	metadata := map[string]any{"score": score}

	text, ok := node["text"].(string)
	if !ok {
		return Item{Content: fmt.Sprintf("%v", node), Metadata: metadata}
	}

	for key, value := range node {
		if key == "text" || key == "embedding" {
			continue
		}
		metadata[key] = value
	}

	return Item{Content: text, Metadata: metadata}
}

// itemFromRow builds an item from an enrichment-query result row. The "text"
// column is the content; when absent, the first string column (by sorted
// column name) stands in; every other column becomes metadata.
func itemFromRow(row graph.Row) Item {
	metadata := make(map[string]any, len(row))
	content := ""
	contentKey := ""

	if text, ok := row["text"].(string); ok {
		content = text
		contentKey = "text"
	} else {
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if value, ok := row[key].(string); ok {
				content = value
				contentKey = key
				break
			}
		}
	}

	if contentKey == "" {
		return Item{Content: fmt.Sprintf("%v", row), Metadata: nil}
	}

	for key, value := range row {
		if key == contentKey {
			continue
		}
		metadata[key] = value
	}

	if len(metadata) == 0 {
		metadata = nil
	}

	return Item{Content: content, Metadata: metadata}
}

func itemsFromNodeRows(rows []graph.Row) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		node, ok := row["node"].(map[string]any)
		if !ok {
			continue
		}
		items = append(items, itemFromNode(node, row["score"]))
	}
	return items
}

func itemsFromRows(rows []graph.Row) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromRow(row))
	}
	return items
}
