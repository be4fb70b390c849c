/*
Package errors defines the error taxonomy for the graphmem provider.

Configuration problems fail loud at construction. Search-path failures are
swallowed by the provider (a retrieval outage must never break a model turn),
while memory writes propagate, since silently dropping a memory is worse than
surfacing the failure.
*/
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid or missing constructor option.
// It is fatal to the instance and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for a named option.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// ConnectionError reports an unreachable store or failed authentication.
// The caller may reconstruct the provider and try again.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConflictError reports a per-operation thread scoping violation: a second,
// distinct thread id was captured on the same provider instance.
type ConflictError struct {
	Captured string
	Offered  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"provider is scoped to thread %q and cannot be reused for thread %q",
		e.Captured, e.Offered,
	)
}

// StoreQueryError wraps a statement the store rejected.
type StoreQueryError struct {
	Statement string
	Err       error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("store rejected statement: %v", e.Err)
}

func (e *StoreQueryError) Unwrap() error { return e.Err }

// ErrNotConnected is returned by administrative operations attempted outside
// the connected lifetime. Search-path operations degrade to an empty result
// instead of returning it.
var ErrNotConnected = errors.New("provider is not connected")

// ErrVectorIndexUnsupported marks provisioning failures caused by the backing
// store not supporting vector indexes (Neo4j < 5.11).
var ErrVectorIndexUnsupported = errors.New("vector indexes are not supported by this store version")

// NewStoreQueryError classifies a store failure. When the message indicates
// the store lacks vector index support, the error is re-raised with a
// clarified cause; anything else is wrapped unchanged.
func NewStoreQueryError(statement string, err error) error {
	if IsVectorUnsupported(err) {
		return &StoreQueryError{
			Statement: statement,
			Err:       fmt.Errorf("%w (Neo4j 5.11+ required): %v", ErrVectorIndexUnsupported, err),
		}
	}
	return &StoreQueryError{Statement: statement, Err: err}
}

// IsVectorUnsupported reports whether err looks like the store refusing a
// vector index statement for lack of support.
func IsVectorUnsupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVectorIndexUnsupported) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "vector") &&
		(strings.Contains(msg, "not supported") || strings.Contains(msg, "unsupported"))
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
