package memory

import (
	"fmt"
	"regexp"
	"time"

	"github.com/machinae/graphmem/pkg/chat"
	"github.com/machinae/graphmem/pkg/errors"
)

// timestampLayout is fixed-width ISO-8601 UTC with microseconds, so that
// lexicographic ordering on the stored property matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Record is one persisted memory. Records are immutable after creation;
// deletion is an external administrative action.
type Record struct {
	ID         string
	Text       string
	Role       chat.Role
	Timestamp  time.Time
	Score      float64

	// Scope dimensions stamped at write time.
	ApplicationID string
	AgentID       string
	UserID        string
	ThreadID      string

	// Optional provenance carried from the originating message.
	MessageID  string
	AuthorName string

	Embedding []float32
}

// ContextLine renders the record for a model context block.
func (r Record) ContextLine() string {
	if r.Timestamp.IsZero() {
		return fmt.Sprintf("[%s]: %s", r.Role, r.Text)
	}
	return fmt.Sprintf("[%s] [%s]: %s", r.Timestamp.UTC().Format(timestampLayout), r.Role, r.Text)
}

// Config holds the memory subsystem settings. Immutable after validation.
type Config struct {
	Enabled           bool
	Label             string
	Roles             []chat.Role
	OverwriteIndex    bool
	VectorIndexName   string
	FulltextIndexName string
}

// DefaultConfig returns the memory defaults: disabled, Memory label,
// user+assistant roles, standard index names.
func DefaultConfig() Config {
	return Config{
		Label:             "Memory",
		Roles:             []chat.Role{chat.RoleUser, chat.RoleAssistant},
		VectorIndexName:   "memory_embeddings",
		FulltextIndexName: "memory_fulltext",
	}
}

// identifierPattern limits names that are interpolated into Cypher (node
// label, index names) to plain identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate enforces the memory rules, including the cross-field invariant
// that enabled memory needs at least one scope dimension.
func Validate(cfg Config, scope ScopeConfig) error {
	for _, role := range cfg.Roles {
		switch role {
		case chat.RoleUser, chat.RoleAssistant, chat.RoleSystem:
		default:
			return errors.NewConfigurationError(
				"memory_roles", "invalid role "+string(role)+"; must be one of user, assistant, system",
			)
		}
	}

	if !identifierPattern.MatchString(cfg.Label) {
		return errors.NewConfigurationError("memory_label", "must be a plain identifier")
	}
	if !identifierPattern.MatchString(cfg.VectorIndexName) {
		return errors.NewConfigurationError("memory_vector_index_name", "must be a plain identifier")
	}
	if !identifierPattern.MatchString(cfg.FulltextIndexName) {
		return errors.NewConfigurationError("memory_fulltext_index_name", "must be a plain identifier")
	}

	if cfg.Enabled && !scope.HasAny() {
		return errors.NewConfigurationError(
			"memory_enabled",
			"memory requires at least one scope dimension: application_id, agent_id, user_id or thread_id",
		)
	}

	return nil
}

// storesRole reports whether the role is in the configured role set.
func (cfg Config) storesRole(role chat.Role) bool {
	for _, candidate := range cfg.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}
