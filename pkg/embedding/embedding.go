/*
Package embedding defines the embedder contract used for vector and hybrid
search, plus the OpenAI-backed implementation and a deterministic mock.

The contract is deliberately narrow: one text in, one vector out. Batch APIs
are never assumed; callers that need to embed several texts call EmbedQuery
once per text.
*/
package embedding

import "context"

// Embedder turns a piece of text into a vector. Implementations may block;
// callers are expected to dispatch through an async.Runner.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
