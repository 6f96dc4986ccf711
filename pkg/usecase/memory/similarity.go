package memory

import (
	"math"
	"sort"

	"github.com/m-mizutani/localbrain/pkg/model"
)

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Degenerate inputs (empty vectors, mismatched length, zero
// magnitude) yield 0.0 rather than an error: they are expected when stored
// vectors come from a different embedding model or a corrupted row.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankCandidates scores every candidate against the query vector and returns
// up to limit memory IDs ordered by descending similarity. The sort is
// stable so candidates with equal scores keep their original relative order.
func rankCandidates(query []float64, candidates []*model.MemoryEmbedding, limit int) []model.MemoryID {
	type scored struct {
		id    model.MemoryID
		score float64
	}

	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, scored{
			id:    c.MemoryID,
			score: CosineSimilarity(query, c.Vector),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if len(scores) > limit {
		scores = scores[:limit]
	}

	ids := make([]model.MemoryID, len(scores))
	for i, s := range scores {
		ids[i] = s.id
	}

	return ids
}
