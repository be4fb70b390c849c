/*
Package provider exposes the context provider facade: a single object that an
agent runtime drives through the thread-created / invoking / invoked
lifecycle. Before each model turn it retrieves knowledge and memory context
from the graph store; after each turn it persists the exchange as memories.

Retrieval failures degrade to an empty context bundle so a store outage never
breaks a model turn. Memory writes propagate their errors.
*/
package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/chat"
	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/errors"
	"github.com/machinae/graphmem/pkg/graph"
	"github.com/machinae/graphmem/pkg/memory"
	"github.com/machinae/graphmem/pkg/retriever"
)

// MemoryContextPrompt heads the conversation-memory block of the context
// bundle.
const MemoryContextPrompt = "## Conversation Memory\n" +
	"Relevant information from past conversations:"

// Provider mediates between an agent and a graph-backed knowledge and memory
// store. Construct with New, then Connect before use. One instance serves one
// logical conversation at a time.
type Provider struct {
	search   retriever.Config
	memCfg   memory.Config
	scope    memory.ScopeConfig
	conn     graph.ConnectionConfig
	embedder embedding.Embedder
	run      async.Runner

	store    graph.Querier
	ownStore *graph.Store
	ret      retriever.Retriever
	mem      *memory.Manager
	thread   memory.ThreadCapture
}

// New validates the options and returns an unconnected Provider. Every
// configuration rule is enforced here; a Provider that constructs is a
// Provider that can run.
func New(opts ...Option) (*Provider, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	search, memCfg, scope, conn, err := o.validate()
	if err != nil {
		return nil, err
	}

	return &Provider{
		search:   search,
		memCfg:   memCfg,
		scope:    scope,
		conn:     conn,
		embedder: o.embedder,
		run:      o.runner,
		store:    o.querier,
	}, nil
}

// Connect acquires the store connection and builds the retriever and memory
// manager. The two are acquired and released together: a retriever
// construction failure tears the connection back down. Calling Connect on a
// connected provider is a no-op.
func (p *Provider) Connect(ctx context.Context) error {
	if p.IsConnected() {
		return nil
	}

	if p.store == nil {
		if err := p.conn.Validate(); err != nil {
			return err
		}

		var store *graph.Store
		err := p.run.Do(ctx, func() error {
			var connErr error
			store, connErr = graph.Connect(ctx, p.conn)
			return connErr
		})
		if err != nil {
			return err
		}

		p.store = store
		p.ownStore = store
	}

	if p.search.IndexName != "" {
		ret, err := retriever.New(ctx, p.search, p.store, p.run)
		if err != nil {
			if p.ownStore != nil {
				store := p.ownStore
				_ = p.run.Do(ctx, func() error { return store.Close(ctx) })
			}
			p.teardown()
			return err
		}
		p.ret = ret
	}

	p.mem = memory.NewManager(p.memCfg, p.scope, p.store, p.embedder, p.run)

	log.Debug("provider connected", "uri", p.conn.URI, "index", p.search.IndexName)

	return nil
}

// Close releases the store connection. Safe to call on an unconnected
// provider.
func (p *Provider) Close(ctx context.Context) error {
	if p.ownStore == nil {
		p.teardown()
		return nil
	}

	store := p.ownStore
	p.teardown()

	return p.run.Do(ctx, func() error {
		return store.Close(ctx)
	})
}

func (p *Provider) teardown() {
	p.store = nil
	p.ownStore = nil
	p.ret = nil
	p.mem = nil
}

// IsConnected reports whether the provider holds a live store connection.
func (p *Provider) IsConnected() bool {
	if p.store == nil {
		return false
	}
	if p.search.IndexName != "" && p.ret == nil {
		return false
	}
	return true
}

// ThreadCreated captures the operation's thread id. With per-operation thread
// scoping enabled, a second distinct id on the same instance is a
// ConflictError; otherwise the first id seen sticks and later ids are
// ignored.
func (p *Provider) ThreadCreated(_ context.Context, threadID string) error {
	if p.scope.PerOperationThreadID {
		return p.thread.Capture(threadID)
	}
	if p.thread.ID() == "" {
		return p.thread.Capture(threadID)
	}
	return nil
}

// Invoking builds the context bundle for the upcoming model turn: a knowledge
// block from the configured index and, when memory is enabled, a conversation
// memory block. Both searches share the query text assembled from the most
// recent qualifying request messages. Failures are logged and degrade to an
// empty bundle; an unconnected provider returns an empty bundle.
func (p *Provider) Invoking(ctx context.Context, messages []chat.Message) []chat.Message {
	bundle := []chat.Message{}

	if !p.IsConnected() {
		log.Warn("context retrieval skipped, provider is not connected")
		return bundle
	}

	query := p.buildQueryText(messages)
	if query == "" {
		return bundle
	}

	if p.ret != nil {
		bundle = append(bundle, p.knowledgeContext(ctx, query)...)
	}

	if p.memCfg.Enabled {
		bundle = append(bundle, p.memoryContext(ctx, query)...)
	}

	return bundle
}

func (p *Provider) knowledgeContext(ctx context.Context, query string) []chat.Message {
	result, err := p.ret.Search(ctx, query, p.search.TopK)
	if err != nil {
		log.Warn("knowledge retrieval failed", "index", p.search.IndexName, "error", err)
		return nil
	}

	blocks := retriever.FormatResult(result)
	if len(blocks) == 0 {
		return nil
	}

	messages := []chat.Message{
		chat.NewTextMessage(chat.RoleUser, p.search.ContextPrompt),
	}
	for _, block := range blocks {
		messages = append(messages, chat.NewTextMessage(chat.RoleUser, block))
	}

	return messages
}

func (p *Provider) memoryContext(ctx context.Context, query string) []chat.Message {
	records, err := p.mem.Search(ctx, query, p.effectiveThreadID(), p.search.TopK)
	if err != nil {
		log.Warn("memory retrieval failed", "error", err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	messages := []chat.Message{
		chat.NewTextMessage(chat.RoleUser, MemoryContextPrompt),
	}
	for _, record := range records {
		messages = append(messages, chat.NewTextMessage(chat.RoleUser, record.ContextLine()))
	}

	return messages
}

// Invoked persists the completed exchange as memories. The request and
// response messages pass through the role and blank-text filters before
// storage; index provisioning runs lazily on the first write. The exchange is
// stored even when the turn itself failed, so a flaky model call does not
// lose the user's side of the conversation. No-op when memory is disabled or
// the provider is not connected.
func (p *Provider) Invoked(ctx context.Context, request, response []chat.Message, invokeErr error) error {
	if !p.memCfg.Enabled {
		return nil
	}
	if !p.IsConnected() {
		log.Warn("memory storage skipped, provider is not connected")
		return nil
	}

	if invokeErr != nil {
		log.Debug("storing exchange from a failed turn", "error", invokeErr)
	}

	if err := p.mem.EnsureIndexes(ctx); err != nil {
		return err
	}

	exchange := make([]chat.Message, 0, len(request)+len(response))
	exchange = append(exchange, request...)
	exchange = append(exchange, response...)

	return p.mem.Store(ctx, exchange, p.effectiveThreadID())
}

// Search runs a one-shot knowledge retrieval outside the turn lifecycle.
// Unlike Invoking it does not degrade: callers asking directly get the error.
func (p *Provider) Search(ctx context.Context, queryText string) (retriever.Result, error) {
	if !p.IsConnected() {
		return retriever.Result{}, errors.ErrNotConnected
	}
	if p.ret == nil {
		return retriever.Result{}, errors.NewConfigurationError("index_name", "no knowledge index configured")
	}
	return p.ret.Search(ctx, queryText, p.search.TopK)
}

// SearchMemories runs a one-shot memory retrieval outside the turn lifecycle.
func (p *Provider) SearchMemories(ctx context.Context, queryText string) ([]memory.Record, error) {
	if !p.IsConnected() {
		return nil, errors.ErrNotConnected
	}
	if !p.memCfg.Enabled {
		return nil, errors.NewConfigurationError("memory", "memory is not enabled")
	}
	return p.mem.Search(ctx, queryText, p.effectiveThreadID(), p.search.TopK)
}

// ProvisionMemoryIndexes forces memory index creation now instead of lazily
// on the first write. Administrative: raises ErrNotConnected when called
// outside the connected lifetime.
func (p *Provider) ProvisionMemoryIndexes(ctx context.Context) error {
	if !p.IsConnected() {
		return errors.ErrNotConnected
	}
	if !p.memCfg.Enabled {
		return errors.NewConfigurationError("memory", "memory is not enabled")
	}
	return p.mem.EnsureIndexes(ctx)
}

// effectiveThreadID resolves the thread dimension: the runtime-captured id
// under per-operation scoping, the statically configured one otherwise.
func (p *Provider) effectiveThreadID() string {
	return p.scope.EffectiveThreadID(p.thread.ID())
}

// buildQueryText joins the text of the most recent qualifying messages.
// Non-conversational roles and blank messages are skipped.
func (p *Provider) buildQueryText(messages []chat.Message) string {
	qualifying := make([]string, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsConversational() || !msg.HasText() {
			continue
		}
		qualifying = append(qualifying, msg.Text)
	}

	if len(qualifying) > p.search.MessageHistoryCount {
		qualifying = qualifying[len(qualifying)-p.search.MessageHistoryCount:]
	}

	return strings.TrimSpace(strings.Join(qualifying, "\n"))
}
