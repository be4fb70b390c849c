package embedding

import "context"

// MockEmbedder generates small deterministic embeddings for testing.
type MockEmbedder struct {
	Dimensions int
	Calls      int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimensions: 4}
}

// EmbedQuery derives a vector from the text bytes so that equal texts map to
// equal vectors and different texts usually do not.
func (e *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.Calls++

	dims := e.Dimensions
	if dims <= 0 {
		dims = 4
	}

	vector := make([]float32, dims)
	for i := range vector {
		if len(text) > 0 {
			vector[i] = float32(text[i%len(text)]) / 256.0
		} else {
			vector[i] = 0.5
		}
	}

	return vector, nil
}
