package provider

import (
	valgo "github.com/cohesivestack/valgo"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/chat"
	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/errors"
	"github.com/machinae/graphmem/pkg/graph"
	"github.com/machinae/graphmem/pkg/memory"
	"github.com/machinae/graphmem/pkg/retriever"
)

type options struct {
	uri      string
	username string
	password string

	indexName           string
	kind                retriever.Kind
	fulltextIndexName   string
	retrievalQuery      string
	topK                int
	contextPrompt       string
	messageHistoryCount int
	filterStopWords     *bool
	embedder            embedding.Embedder

	memory memory.Config
	scope  memory.ScopeConfig

	runner  async.Runner
	querier graph.Querier
}

// Option configures a Provider at construction.
type Option func(*options)

// WithConnection sets the store endpoint and credentials. Empty fields keep
// their environment fallback (NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD).
func WithConnection(uri, username, password string) Option {
	return func(o *options) {
		if uri != "" {
			o.uri = uri
		}
		if username != "" {
			o.username = username
		}
		if password != "" {
			o.password = password
		}
	}
}

// WithIndex sets the knowledge index to search. An empty name keeps the
// NEO4J_INDEX_NAME environment fallback.
func WithIndex(name string, kind retriever.Kind) Option {
	return func(o *options) {
		if name != "" {
			o.indexName = name
		}
		o.kind = kind
	}
}

// WithFulltextIndex sets the secondary fulltext index used by hybrid search.
func WithFulltextIndex(name string) Option {
	return func(o *options) { o.fulltextIndexName = name }
}

// WithRetrievalQuery enables graph enrichment: the Cypher fragment runs after
// the index lookup with `node` and `score` in scope.
func WithRetrievalQuery(query string) Option {
	return func(o *options) { o.retrievalQuery = query }
}

// WithTopK sets the result count for both knowledge and memory search.
func WithTopK(topK int) Option {
	return func(o *options) { o.topK = topK }
}

// WithContextPrompt overrides the header prepended to knowledge context.
func WithContextPrompt(prompt string) Option {
	return func(o *options) { o.contextPrompt = prompt }
}

// WithMessageHistoryCount sets how many recent qualifying messages build the
// query text.
func WithMessageHistoryCount(count int) Option {
	return func(o *options) { o.messageHistoryCount = count }
}

// WithFilterStopWords overrides the stop-word filtering default (on for
// fulltext search, off otherwise).
func WithFilterStopWords(filter bool) Option {
	return func(o *options) { o.filterStopWords = &filter }
}

// WithEmbedder sets the embedder used for vector and hybrid search and for
// memory embeddings.
func WithEmbedder(embedder embedding.Embedder) Option {
	return func(o *options) { o.embedder = embedder }
}

// WithMemory enables memory storage under the given node label.
func WithMemory(label string) Option {
	return func(o *options) {
		o.memory.Enabled = true
		if label != "" {
			o.memory.Label = label
		}
	}
}

// WithMemoryRoles restricts which message roles are stored as memories.
func WithMemoryRoles(roles ...chat.Role) Option {
	return func(o *options) { o.memory.Roles = roles }
}

// WithMemoryIndexNames overrides the memory vector and fulltext index names.
func WithMemoryIndexNames(vectorIndex, fulltextIndex string) Option {
	return func(o *options) {
		if vectorIndex != "" {
			o.memory.VectorIndexName = vectorIndex
		}
		if fulltextIndex != "" {
			o.memory.FulltextIndexName = fulltextIndex
		}
	}
}

// WithOverwriteMemoryIndex drops and recreates the memory indexes on every
// provisioning call.
func WithOverwriteMemoryIndex() Option {
	return func(o *options) { o.memory.OverwriteIndex = true }
}

// WithScope binds the tenant dimensions used to isolate memory. Empty
// dimensions are not constrained.
func WithScope(scope memory.ScopeConfig) Option {
	return func(o *options) { o.scope = scope }
}

// WithRunner substitutes the blocking-call runner. Tests use async.Sync.
func WithRunner(run async.Runner) Option {
	return func(o *options) { o.runner = run }
}

// WithQuerier substitutes the store. The provider then skips driver
// construction on Connect; intended for tests.
func WithQuerier(querier graph.Querier) Option {
	return func(o *options) { o.querier = querier }
}

func defaultOptions() options {
	settings := LoadSettings()

	return options{
		uri:                 settings.URI,
		username:            settings.Username,
		password:            settings.Password,
		indexName:           settings.IndexName,
		kind:                retriever.KindVector,
		topK:                5,
		contextPrompt:       retriever.DefaultContextPrompt,
		messageHistoryCount: 10,
		memory:              memory.DefaultConfig(),
		runner:              async.Offload{},
	}
}

// validate applies every configuration rule and materializes the immutable
// config records. Each rule fails fast with a ConfigurationError.
func (o *options) validate() (retriever.Config, memory.Config, memory.ScopeConfig, graph.ConnectionConfig, error) {
	search := retriever.Config{
		IndexName:           o.indexName,
		Kind:                o.kind,
		FulltextIndexName:   o.fulltextIndexName,
		RetrievalQuery:      o.retrievalQuery,
		TopK:                o.topK,
		ContextPrompt:       o.contextPrompt,
		MessageHistoryCount: o.messageHistoryCount,
		FilterStopWords:     o.filterStopWords,
		Embedder:            o.embedder,
	}

	if o.indexName == "" && o.memory.Enabled {
		// Memory-only provider: knowledge search is skipped, but the shared
		// scalar limits still apply.
		val := valgo.Is(valgo.Number(o.topK, "top_k").GreaterOrEqualTo(1)).
			Is(valgo.Number(o.messageHistoryCount, "message_history_count").GreaterOrEqualTo(1))
		if !val.Valid() {
			return retriever.Config{}, memory.Config{}, memory.ScopeConfig{}, graph.ConnectionConfig{},
				errors.NewConfigurationError("search", val.Error().Error())
		}
	} else {
		if o.indexName == "" {
			return retriever.Config{}, memory.Config{}, memory.ScopeConfig{}, graph.ConnectionConfig{},
				errors.NewConfigurationError(
					"index_name",
					"required; set via WithIndex or the NEO4J_INDEX_NAME environment variable",
				)
		}
		if err := search.Validate(); err != nil {
			return retriever.Config{}, memory.Config{}, memory.ScopeConfig{}, graph.ConnectionConfig{}, err
		}
	}

	if err := memory.Validate(o.memory, o.scope); err != nil {
		return retriever.Config{}, memory.Config{}, memory.ScopeConfig{}, graph.ConnectionConfig{}, err
	}

	conn := graph.ConnectionConfig{
		URI:      o.uri,
		Username: o.username,
		Password: o.password,
	}

	return search, o.memory, o.scope, conn, nil
}
