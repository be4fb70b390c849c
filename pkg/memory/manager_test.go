package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/machinae/graphmem/pkg/async"
	"github.com/machinae/graphmem/pkg/chat"
	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/graph"
)

// stubStore records every statement and serves canned read rows.
type stubStore struct {
	reads    []string
	writes   []string
	params   []map[string]any
	readRows []graph.Row
}

func (s *stubStore) Read(ctx context.Context, cypher string, params map[string]any) ([]graph.Row, error) {
	s.reads = append(s.reads, cypher)
	s.params = append(s.params, params)
	return s.readRows, nil
}

func (s *stubStore) Write(ctx context.Context, cypher string, params map[string]any) ([]graph.Row, error) {
	s.writes = append(s.writes, cypher)
	s.params = append(s.params, params)
	return nil, nil
}

func enabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return cfg
}

func TestEnsureIndexes(t *testing.T) {
	ctx := context.Background()
	scope := ScopeConfig{UserID: "user-1"}

	t.Run("ProvisionsOnceWithEmbedder", func(t *testing.T) {
		store := &stubStore{}
		mgr := NewManager(enabledConfig(), scope, store, embedding.NewMockEmbedder(), async.Sync{})

		if err := mgr.EnsureIndexes(ctx); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		// Vector, fulltext, and four scope property indexes.
		if len(store.writes) != 6 {
			t.Fatalf("Expected 6 creation statements, got %d", len(store.writes))
		}

		first := len(store.writes)
		if err := mgr.EnsureIndexes(ctx); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(store.writes) != first {
			t.Fatalf("Expected second call to be a no-op, got %d more statements", len(store.writes)-first)
		}
	})

	t.Run("SkipsVectorIndexWithoutEmbedder", func(t *testing.T) {
		store := &stubStore{}
		mgr := NewManager(enabledConfig(), scope, store, nil, async.Sync{})

		if err := mgr.EnsureIndexes(ctx); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		for _, stmt := range store.writes {
			if strings.Contains(stmt, "VECTOR INDEX") {
				t.Fatalf("Expected no vector index statement, got: %s", stmt)
			}
		}
		if len(store.writes) != 5 {
			t.Fatalf("Expected 5 creation statements, got %d", len(store.writes))
		}
	})

	t.Run("OverwriteDropsAndRecreatesEveryCall", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.OverwriteIndex = true
		store := &stubStore{}
		mgr := NewManager(cfg, scope, store, embedding.NewMockEmbedder(), async.Sync{})

		if err := mgr.EnsureIndexes(ctx); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		drops := 0
		for _, stmt := range store.writes {
			if strings.HasPrefix(stmt, "DROP INDEX") {
				drops++
			}
		}
		if drops != 6 {
			t.Fatalf("Expected 6 drop statements, got %d", drops)
		}

		first := len(store.writes)
		if err := mgr.EnsureIndexes(ctx); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(store.writes) != 2*first {
			t.Fatalf("Expected overwrite to re-issue all statements, got %d total", len(store.writes))
		}
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	scope := ScopeConfig{UserID: "user-1"}

	t.Run("FiltersRolesAndBlankText", func(t *testing.T) {
		store := &stubStore{}
		mgr := NewManager(enabledConfig(), scope, store, nil, async.Sync{})

		messages := []chat.Message{
			{Role: chat.RoleUser, Text: "remember my name is Ada"},
			{Role: chat.RoleSystem, Text: "you are a helpful assistant"},
			{Role: chat.RoleAssistant, Text: "   "},
			{Role: chat.RoleAssistant, Text: "noted"},
		}

		if err := mgr.Store(ctx, messages, "thread-1"); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(store.writes) != 1 {
			t.Fatalf("Expected one batched write, got %d", len(store.writes))
		}

		memories, ok := store.params[0]["memories"].([]map[string]any)
		if !ok {
			t.Fatalf("Expected memories parameter, got: %v", store.params[0])
		}
		if len(memories) != 2 {
			t.Fatalf("Expected 2 stored records, got %d", len(memories))
		}
		if memories[0]["text"] != "remember my name is Ada" || memories[1]["text"] != "noted" {
			t.Fatalf("Unexpected stored texts: %v", memories)
		}
		if memories[0]["user_id"] != "user-1" || memories[0]["thread_id"] != "thread-1" {
			t.Fatalf("Expected scope stamped on record, got: %v", memories[0])
		}
	})

	t.Run("NothingQualifyingSkipsWrite", func(t *testing.T) {
		store := &stubStore{}
		mgr := NewManager(enabledConfig(), scope, store, nil, async.Sync{})

		messages := []chat.Message{
			{Role: chat.RoleSystem, Text: "instructions"},
		}

		if err := mgr.Store(ctx, messages, ""); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(store.writes) != 0 {
			t.Fatalf("Expected no write, got %d", len(store.writes))
		}
	})

	t.Run("EmbedsEachRecordWithEmbedder", func(t *testing.T) {
		store := &stubStore{}
		embedder := embedding.NewMockEmbedder()
		mgr := NewManager(enabledConfig(), scope, store, embedder, async.Sync{})

		messages := []chat.Message{
			{Role: chat.RoleUser, Text: "first"},
			{Role: chat.RoleAssistant, Text: "second"},
		}

		if err := mgr.Store(ctx, messages, ""); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if embedder.Calls != 2 {
			t.Fatalf("Expected one embedding call per record, got %d", embedder.Calls)
		}

		memories := store.params[0]["memories"].([]map[string]any)
		if _, ok := memories[0]["embedding"].([]float64); !ok {
			t.Fatalf("Expected widened embedding on record, got: %v", memories[0]["embedding"])
		}
		if !strings.Contains(store.writes[0], "m.embedding = memory.embedding") {
			t.Fatalf("Expected embedding assignment in statement: %s", store.writes[0])
		}
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	scope := ScopeConfig{UserID: "user-1"}

	t.Run("RanksBySimilarityWithEmbedder", func(t *testing.T) {
		store := &stubStore{readRows: []graph.Row{
			{"id": "m1", "text": "hello", "role": "user", "timestamp": "2026-08-29T10:00:00.000000Z", "score": 0.92},
		}}
		mgr := NewManager(enabledConfig(), scope, store, embedding.NewMockEmbedder(), async.Sync{})

		records, err := mgr.Search(ctx, "hello", "", 5)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(records) != 1 || records[0].Score != 0.92 {
			t.Fatalf("Unexpected records: %v", records)
		}
		if records[0].Timestamp.IsZero() {
			t.Fatalf("Expected parsed timestamp")
		}
		if !strings.Contains(store.reads[0], "vector.similarity.cosine") {
			t.Fatalf("Expected similarity ranking, got: %s", store.reads[0])
		}
		if !strings.Contains(store.reads[0], "m.embedding IS NOT NULL") {
			t.Fatalf("Expected embedding guard, got: %s", store.reads[0])
		}
	})

	t.Run("FallsBackToRecencyWithoutEmbedder", func(t *testing.T) {
		store := &stubStore{readRows: []graph.Row{
			{"id": "m1", "text": "hello", "role": "user", "timestamp": "2026-08-29T10:00:00.000000Z", "score": 1.0},
		}}
		mgr := NewManager(enabledConfig(), scope, store, nil, async.Sync{})

		records, err := mgr.Search(ctx, "hello", "", 5)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if records[0].Score != 1.0 {
			t.Fatalf("Expected nominal score 1.0, got: %v", records[0].Score)
		}
		if !strings.Contains(store.reads[0], "ORDER BY m.timestamp DESC") {
			t.Fatalf("Expected recency ordering, got: %s", store.reads[0])
		}
	})

	t.Run("ScopesTheQuery", func(t *testing.T) {
		store := &stubStore{}
		mgr := NewManager(enabledConfig(), scope, store, nil, async.Sync{})

		if _, err := mgr.Search(ctx, "hello", "thread-9", 3); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		params := store.params[0]
		if params["user_id"] != "user-1" || params["thread_id"] != "thread-9" {
			t.Fatalf("Expected scope parameters, got: %v", params)
		}
		if params["top_k"] != 3 {
			t.Fatalf("Expected top_k 3, got: %v", params["top_k"])
		}
	})
}
