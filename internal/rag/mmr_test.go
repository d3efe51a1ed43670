package rag

import (
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/cli/internal/db"
)

func candidate(content string, vec []float32) *db.SearchResult {
	v := pgvector.NewVector(vec)
	return &db.SearchResult{
		Chunk:  db.Chunk{Content: content, Embedding: &v},
		Source: "test.pdf",
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSelectMMRPrefersDiverseResults(t *testing.T) {
	query := []float32{1, 0, 0}
	// a and b are near-duplicates close to the query; c is less similar
	// but carries different information.
	candidates := []*db.SearchResult{
		candidate("a", []float32{1, 0, 0}),
		candidate("b", []float32{0.99, 0.1, 0}),
		candidate("c", []float32{0.5, 0, 0.87}),
	}

	selected := selectMMR(query, candidates, 2, 0.5)
	require.Len(t, selected, 2)
	assert.Equal(t, "a", selected[0].Content)
	assert.Equal(t, "c", selected[1].Content, "second pick should avoid the near-duplicate")
}

func TestSelectMMRPureRelevance(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*db.SearchResult{
		candidate("best", []float32{1, 0}),
		candidate("dup", []float32{1, 0.01}),
		candidate("far", []float32{0, 1}),
	}

	// lambda=1 ignores redundancy entirely
	selected := selectMMR(query, candidates, 2, 1)
	require.Len(t, selected, 2)
	assert.Equal(t, "best", selected[0].Content)
	assert.Equal(t, "dup", selected[1].Content)
}

func TestSelectMMRKLargerThanPool(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*db.SearchResult{candidate("only", []float32{1, 0})}

	selected := selectMMR(query, candidates, 5, 0.5)
	assert.Len(t, selected, 1)
}

func TestSelectMMRSkipsCandidatesWithoutEmbedding(t *testing.T) {
	query := []float32{1, 0}
	noVec := &db.SearchResult{Chunk: db.Chunk{Content: "broken"}}
	candidates := []*db.SearchResult{noVec, candidate("ok", []float32{1, 0})}

	selected := selectMMR(query, candidates, 2, 0.5)
	require.Len(t, selected, 1)
	assert.Equal(t, "ok", selected[0].Content)
}
