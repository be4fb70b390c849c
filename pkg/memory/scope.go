/*
Package memory stores conversation turns as scoped nodes in the graph and
retrieves them by similarity (or recency, when no embedder is configured).

Scoping is the security boundary of the subsystem: every read and write is
constrained to the tenant dimensions bound at construction, so memories never
leak across applications, agents, users or threads.
*/
package memory

import (
	"fmt"
	"strings"

	"github.com/machinae/graphmem/pkg/errors"
)

// ScopeConfig holds the tenant dimensions used to isolate memory records.
// Unset dimensions are not constrained.
type ScopeConfig struct {
	ApplicationID string
	AgentID       string
	UserID        string
	ThreadID      string

	// PerOperationThreadID resolves the thread dimension from the id captured
	// at runtime instead of the statically configured one.
	PerOperationThreadID bool
}

// HasAny reports whether at least one dimension is set.
func (s ScopeConfig) HasAny() bool {
	return s.ApplicationID != "" || s.AgentID != "" || s.UserID != "" || s.ThreadID != ""
}

// EffectiveThreadID resolves the thread dimension: the captured runtime id
// when per-operation scoping is enabled, the configured one otherwise.
func (s ScopeConfig) EffectiveThreadID(captured string) string {
	if s.PerOperationThreadID {
		return captured
	}
	return s.ThreadID
}

// Filter builds a conjunctive equality predicate over the bound dimensions,
// with `m` as the node alias, plus its parameter bindings. With zero bound
// dimensions the predicate is a tautology and callers requiring isolation
// must not reach this point; configuration validation enforces that one
// level up for the memory case.
func (s ScopeConfig) Filter(threadID string) (string, map[string]any) {
	var conditions []string
	params := map[string]any{}

	if s.ApplicationID != "" {
		conditions = append(conditions, "m.application_id = $application_id")
		params["application_id"] = s.ApplicationID
	}
	if s.AgentID != "" {
		conditions = append(conditions, "m.agent_id = $agent_id")
		params["agent_id"] = s.AgentID
	}
	if s.UserID != "" {
		conditions = append(conditions, "m.user_id = $user_id")
		params["user_id"] = s.UserID
	}
	if threadID != "" {
		conditions = append(conditions, "m.thread_id = $thread_id")
		params["thread_id"] = threadID
	}

	if len(conditions) == 0 {
		return "1=1", params
	}
	return strings.Join(conditions, " AND "), params
}

/*
ThreadCapture pins a provider instance to the first per-operation thread id
it sees. A later distinct id is a ConflictError; this is a correctness
assertion against cross-thread leakage, not a synchronization primitive.
*/
type ThreadCapture struct {
	id string
}

// Capture records the thread id. Re-capturing the same id is a no-op; an
// empty id is ignored.
func (tc *ThreadCapture) Capture(threadID string) error {
	if threadID == "" {
		return nil
	}
	if tc.id != "" && tc.id != threadID {
		return &errors.ConflictError{Captured: tc.id, Offered: threadID}
	}
	tc.id = threadID
	return nil
}

// ID returns the captured thread id, or "" when none was captured.
func (tc *ThreadCapture) ID() string { return tc.id }

func (tc *ThreadCapture) String() string {
	return fmt.Sprintf("ThreadCapture(%q)", tc.id)
}
