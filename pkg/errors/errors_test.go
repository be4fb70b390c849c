package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("index_name", "required")

	if err.Error() != "invalid configuration: index_name: required" {
		t.Fatalf("Unexpected message: %s", err.Error())
	}
	if !IsConfiguration(err) {
		t.Fatalf("Expected IsConfiguration to match")
	}
	if IsConfiguration(errors.New("other")) {
		t.Fatalf("Expected IsConfiguration to reject unrelated errors")
	}
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{Captured: "t1", Offered: "t2"}

	if !IsConflict(err) {
		t.Fatalf("Expected IsConflict to match")
	}
	if !IsConflict(fmt.Errorf("wrapped: %w", err)) {
		t.Fatalf("Expected IsConflict to match through wrapping")
	}
}

func TestVectorUnsupportedClassification(t *testing.T) {
	t.Run("MatchesStoreMessage", func(t *testing.T) {
		cause := errors.New("Vector indexes are not supported in this Neo4j version")
		err := NewStoreQueryError("CREATE VECTOR INDEX ...", cause)

		if !errors.Is(err, ErrVectorIndexUnsupported) {
			t.Fatalf("Expected classification as vector-unsupported, got: %v", err)
		}
	})

	t.Run("LeavesOtherFailuresAlone", func(t *testing.T) {
		cause := errors.New("connection reset by peer")
		err := NewStoreQueryError("MATCH (n) RETURN n", cause)

		if errors.Is(err, ErrVectorIndexUnsupported) {
			t.Fatalf("Expected no vector-unsupported classification, got: %v", err)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("Expected cause to be preserved")
		}
	})
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectionError{URI: "neo4j://localhost:7687", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatalf("Expected cause to be preserved")
	}
}
