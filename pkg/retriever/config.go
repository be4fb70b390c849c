/*
Package retriever implements index-backed search against the graph store.

Five variants are supported: vector, vector with graph enrichment, hybrid,
hybrid with graph enrichment, and fulltext (with or without enrichment).
Selection is a pure mapping over (index kind, enrichment present); every
variant sits behind the same Search interface.
*/
package retriever

import (
	valgo "github.com/cohesivestack/valgo"

	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/errors"
)

// Kind selects the index search strategy.
type Kind string

const (
	KindVector   Kind = "vector"
	KindFulltext Kind = "fulltext"
	KindHybrid   Kind = "hybrid"
)

// DefaultContextPrompt is prepended to knowledge-graph context blocks.
const DefaultContextPrompt = "## Knowledge Graph Context\n" +
	"Use the following information from the knowledge graph to answer the question:"

/*
Config is the validated, immutable search configuration. Build it through
provider options; direct construction skips validation.
*/
type Config struct {
	IndexName           string
	Kind                Kind
	FulltextIndexName   string
	RetrievalQuery      string
	TopK                int
	ContextPrompt       string
	MessageHistoryCount int
	FilterStopWords     *bool
	Embedder            embedding.Embedder
}

// Enriched reports whether a graph-enrichment query is configured.
func (cfg Config) Enriched() bool {
	return cfg.RetrievalQuery != ""
}

// EffectiveFilterStopWords resolves the stop-word flag; the default is on for
// fulltext search only.
func (cfg Config) EffectiveFilterStopWords() bool {
	if cfg.FilterStopWords == nil {
		return cfg.Kind == KindFulltext
	}
	return *cfg.FilterStopWords
}

// Validate enforces the per-field rules and cross-field invariants. Each rule
// fails fast with a ConfigurationError.
func (cfg Config) Validate() error {
	val := valgo.Is(valgo.String(cfg.IndexName, "index_name").Not().Blank()).
		Is(valgo.Number(cfg.TopK, "top_k").GreaterOrEqualTo(1)).
		Is(valgo.Number(cfg.MessageHistoryCount, "message_history_count").GreaterOrEqualTo(1))

	if !val.Valid() {
		return errors.NewConfigurationError("search", val.Error().Error())
	}

	switch cfg.Kind {
	case KindVector, KindFulltext, KindHybrid:
	default:
		return errors.NewConfigurationError(
			"index_type", "must be one of vector, fulltext, hybrid",
		)
	}

	if cfg.Kind == KindHybrid && cfg.FulltextIndexName == "" {
		return errors.NewConfigurationError(
			"fulltext_index_name", "required when index_type is hybrid",
		)
	}

	if (cfg.Kind == KindVector || cfg.Kind == KindHybrid) && cfg.Embedder == nil {
		return errors.NewConfigurationError(
			"embedder", "required when index_type is "+string(cfg.Kind),
		)
	}

	return nil
}
