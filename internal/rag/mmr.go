package rag

import (
	"math"

	"github.com/docuchat/cli/internal/db"
)

// selectMMR picks k candidates by maximal marginal relevance: each pick
// maximizes lambda*sim(query, c) - (1-lambda)*max(sim(c, already picked)).
// Candidates without an embedding are skipped.
func selectMMR(query []float32, candidates []*db.SearchResult, k int, lambda float64) []*db.SearchResult {
	if k > len(candidates) {
		k = len(candidates)
	}

	type scored struct {
		result *db.SearchResult
		vec    []float32
		simQ   float64
	}

	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Embedding == nil {
			continue
		}
		vec := c.Embedding.Slice()
		pool = append(pool, scored{result: c, vec: vec, simQ: cosineSimilarity(query, vec)})
	}

	var selected []*db.SearchResult
	var selectedVecs [][]float32

	for len(selected) < k && len(pool) > 0 {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i, cand := range pool {
			redundancy := 0.0
			for _, sv := range selectedVecs {
				if sim := cosineSimilarity(cand.vec, sv); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cand.simQ - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		pick := pool[bestIdx]
		selected = append(selected, pick.result)
		selectedVecs = append(selectedVecs, pick.vec)
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}

	return selected
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
