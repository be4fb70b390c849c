package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/chat"
	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/errors"
	"github.com/machinae/graphmem/pkg/graph"
)

/*
Manager owns the memory node lifecycle: lazy index provisioning, scoped
storage and scoped retrieval. One Manager lives for one provider connection;
the provisioning flag starts false on every new instance and is never
inferred from store state.
*/
type Manager struct {
	cfg      Config
	scope    ScopeConfig
	store    graph.Querier
	embedder embedding.Embedder
	run      async.Runner

	initialized    bool
	fallbackWarned bool
}

func NewManager(cfg Config, scope ScopeConfig, store graph.Querier, embedder embedding.Embedder, run async.Runner) *Manager {
	return &Manager{
		cfg:      cfg,
		scope:    scope,
		store:    store,
		embedder: embedder,
		run:      run,
	}
}

// EnsureIndexes provisions the memory indexes: a vector index over the
// embedding field (only when an embedder is configured), a fulltext index
// over the text field, and an equality index per scope dimension. The call
// is idempotent; after the first success it is a no-op unless overwrite was
// requested, in which case every call drops and recreates.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	if m.initialized && !m.cfg.OverwriteIndex {
		return nil
	}

	if m.store == nil {
		return errors.ErrNotConnected
	}

	statements := make([]string, 0, 12)

	if m.embedder != nil {
		// The store needs the index dimensionality up front; probe it by
		// embedding a throwaway string.
		var probe []float32
		if err := m.run.Do(ctx, func() (innerErr error) {
			probe, innerErr = m.embedder.EmbedQuery(ctx, "dimension probe")
			return innerErr
		}); err != nil {
			return fmt.Errorf("failed to probe embedding dimensions: %w", err)
		}

		if m.cfg.OverwriteIndex {
			statements = append(statements, fmt.Sprintf("DROP INDEX %s IF EXISTS", m.cfg.VectorIndexName))
		}
		statements = append(statements, fmt.Sprintf(
			`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (m:%s) ON m.embedding
OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: 'cosine'}}`,
			m.cfg.VectorIndexName, m.cfg.Label, len(probe),
		))
	}

	if m.cfg.OverwriteIndex {
		statements = append(statements, fmt.Sprintf("DROP INDEX %s IF EXISTS", m.cfg.FulltextIndexName))
	}
	statements = append(statements, fmt.Sprintf(
		"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (m:%s) ON EACH [m.text]",
		m.cfg.FulltextIndexName, m.cfg.Label,
	))

	for _, field := range []string{"application_id", "agent_id", "user_id", "thread_id"} {
		name := "memory_" + field
		if m.cfg.OverwriteIndex {
			statements = append(statements, fmt.Sprintf("DROP INDEX %s IF EXISTS", name))
		}
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX %s IF NOT EXISTS FOR (m:%s) ON (m.%s)",
			name, m.cfg.Label, field,
		))
	}

	if err := m.run.Do(ctx, func() error {
		for _, statement := range statements {
			if _, err := m.store.Write(ctx, statement, nil); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to provision memory indexes: %w", err)
	}

	m.initialized = true
	log.Debug("memory indexes provisioned", "label", m.cfg.Label, "statements", len(statements))
	return nil
}

// Store persists qualifying messages as memory nodes in one batched write.
// A message qualifies when its role is in the configured role set and its
// text is non-blank. Each kept message gets a fresh id, the current UTC
// timestamp, the resolved scope, and, when an embedder is configured, its
// own embedding (one call per record).
func (m *Manager) Store(ctx context.Context, messages []chat.Message, threadID string) error {
	if m.store == nil {
		return errors.ErrNotConnected
	}

	var kept []map[string]any
	hasMessageID := false
	hasAuthorName := false

	for _, msg := range messages {
		if !m.cfg.storesRole(msg.Role) || !msg.HasText() {
			continue
		}

		record := map[string]any{
			"id":             uuid.NewString(),
			"text":           msg.Text,
			"role":           string(msg.Role),
			"timestamp":      time.Now().UTC().Format(timestampLayout),
			"application_id": m.scope.ApplicationID,
			"agent_id":       m.scope.AgentID,
			"user_id":        m.scope.UserID,
			"thread_id":      threadID,
		}

		if msg.MessageID != "" {
			record["message_id"] = msg.MessageID
			hasMessageID = true
		}
		if msg.AuthorName != "" {
			record["author_name"] = msg.AuthorName
			hasAuthorName = true
		}

		kept = append(kept, record)
	}

	if len(kept) == 0 {
		return nil
	}

	if m.embedder != nil {
		// One embedding call per record; a batch API is never assumed.
		for _, record := range kept {
			text := record["text"].(string)

			var vector []float32
			if err := m.run.Do(ctx, func() (innerErr error) {
				vector, innerErr = m.embedder.EmbedQuery(ctx, text)
				return innerErr
			}); err != nil {
				return fmt.Errorf("failed to embed memory text: %w", err)
			}

			widened := make([]float64, len(vector))
			for i, v := range vector {
				widened[i] = float64(v)
			}
			record["embedding"] = widened
		}
	}

	assignments := []string{
		"m.id = memory.id",
		"m.text = memory.text",
		"m.role = memory.role",
		"m.timestamp = memory.timestamp",
		"m.application_id = memory.application_id",
		"m.agent_id = memory.agent_id",
		"m.user_id = memory.user_id",
		"m.thread_id = memory.thread_id",
	}
	if hasMessageID {
		assignments = append(assignments, "m.message_id = memory.message_id")
	}
	if hasAuthorName {
		assignments = append(assignments, "m.author_name = memory.author_name")
	}
	if m.embedder != nil {
		assignments = append(assignments, "m.embedding = memory.embedding")
	}

	cypher := fmt.Sprintf(
		"UNWIND $memories AS memory\nCREATE (m:%s)\nSET %s",
		m.cfg.Label, strings.Join(assignments, ",\n    "),
	)

	if err := m.run.Do(ctx, func() error {
		_, innerErr := m.store.Write(ctx, cypher, map[string]any{"memories": kept})
		return innerErr
	}); err != nil {
		return fmt.Errorf("failed to store memories: %w", err)
	}

	log.Debug("memories stored", "label", m.cfg.Label, "count", len(kept))
	return nil
}

// Search retrieves the top-k memories within scope. With an embedder the
// ranking is vector-similarity descending over records that carry an
// embedding; without one it degrades to the most recent records by
// timestamp, each with a nominal score of 1.0. The downgrade is logged the
// first time it happens because it silently trades semantic ranking for
// recency.
func (m *Manager) Search(ctx context.Context, queryText string, threadID string, topK int) ([]Record, error) {
	if m.store == nil {
		return nil, errors.ErrNotConnected
	}

	filter, params := m.scope.Filter(threadID)
	params["top_k"] = topK

	var cypher string

	if m.embedder != nil {
		vector, err := m.embedQuery(ctx, queryText)
		if err != nil {
			return nil, err
		}
		params["query_embedding"] = vector

		cypher = fmt.Sprintf(`MATCH (m:%s)
WHERE %s AND m.embedding IS NOT NULL
WITH m, vector.similarity.cosine(m.embedding, $query_embedding) AS score
ORDER BY score DESC
LIMIT $top_k
RETURN m.id AS id, m.text AS text, m.role AS role, m.timestamp AS timestamp, score`,
			m.cfg.Label, filter,
		)
	} else {
		if !m.fallbackWarned {
			m.fallbackWarned = true
			log.Warn(
				"no embedder configured; memory search falls back to recency ordering without semantic ranking",
				"label", m.cfg.Label,
			)
		}

		cypher = fmt.Sprintf(`MATCH (m:%s)
WHERE %s
WITH m
ORDER BY m.timestamp DESC
LIMIT $top_k
RETURN m.id AS id, m.text AS text, m.role AS role, m.timestamp AS timestamp, 1.0 AS score`,
			m.cfg.Label, filter,
		)
	}

	var rows []graph.Row
	if err := m.run.Do(ctx, func() (innerErr error) {
		rows, innerErr = m.store.Read(ctx, cypher, params)
		return innerErr
	}); err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

func (m *Manager) embedQuery(ctx context.Context, queryText string) ([]float64, error) {
	var vector []float32
	if err := m.run.Do(ctx, func() (innerErr error) {
		vector, innerErr = m.embedder.EmbedQuery(ctx, queryText)
		return innerErr
	}); err != nil {
		return nil, fmt.Errorf("failed to embed memory query: %w", err)
	}

	widened := make([]float64, len(vector))
	for i, v := range vector {
		widened[i] = float64(v)
	}
	return widened, nil
}

func recordFromRow(row graph.Row) Record {
	record := Record{}

	if id, ok := row["id"].(string); ok {
		record.ID = id
	}
	if text, ok := row["text"].(string); ok {
		record.Text = text
	}
	if role, ok := row["role"].(string); ok {
		record.Role = chat.Role(role)
	}
	if raw, ok := row["timestamp"].(string); ok {
		if ts, err := time.Parse(timestampLayout, raw); err == nil {
			record.Timestamp = ts
		}
	}
	switch score := row["score"].(type) {
	case float64:
		record.Score = score
	case int64:
		record.Score = float64(score)
	}

	return record
}
