package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResult(t *testing.T) {
	t.Run("score leads with three decimals", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "Acme shipped late.", Metadata: map[string]any{"score": 0.92}},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "[Score: 0.920] Acme shipped late.", blocks[0])
	})

	t.Run("fields follow in sorted key order", func(t *testing.T) {
		result := Result{Items: []Item{
			{
				Content: "Acme shipped late.",
				Metadata: map[string]any{
					"score":  0.5,
					"source": "tickets",
					"id":     "doc-7",
				},
			},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "[Score: 0.500] [id: doc-7] [source: tickets] Acme shipped late.", blocks[0])
	})

	t.Run("sequences join with commas", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "Acme shipped late.", Metadata: map[string]any{"tags": []any{"logistics", "q3"}}},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "[tags: logistics, q3] Acme shipped late.", blocks[0])
	})

	t.Run("empty sequences contribute nothing", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "Acme shipped late.", Metadata: map[string]any{"tags": []any{}}},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "Acme shipped late.", blocks[0])
	})

	t.Run("null fields are skipped", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "Acme shipped late.", Metadata: map[string]any{"source": nil}},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "Acme shipped late.", blocks[0])
	})

	t.Run("non-numeric score is dropped", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "Acme shipped late.", Metadata: map[string]any{"score": "high"}},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "Acme shipped late.", blocks[0])
	})

	t.Run("empty blocks are dropped", func(t *testing.T) {
		result := Result{Items: []Item{
			{Content: "", Metadata: nil},
			{Content: "kept", Metadata: nil},
		}}

		blocks := FormatResult(result)
		require.Len(t, blocks, 1)
		assert.Equal(t, "kept", blocks[0])
	})
}
