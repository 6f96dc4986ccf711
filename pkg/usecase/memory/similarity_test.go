package memory_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5}
	score := memory.CosineSimilarity(v, v)
	gt.True(t, math.Abs(score-1.0) < 1e-9)
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{-1, -2}
	score := memory.CosineSimilarity(a, b)
	gt.True(t, math.Abs(score-(-1.0)) < 1e-9)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	score := memory.CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	gt.Equal(t, score, 0.0)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	testCases := map[string]struct {
		a []float64
		b []float64
	}{
		"empty a":          {a: nil, b: []float64{1, 0}},
		"empty b":          {a: []float64{1, 0}, b: nil},
		"both empty":       {a: nil, b: nil},
		"length mismatch":  {a: []float64{1, 0, 0}, b: []float64{1, 0}},
		"zero magnitude a": {a: []float64{0, 0}, b: []float64{1, 0}},
		"zero magnitude b": {a: []float64{1, 0}, b: []float64{0, 0}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.Equal(t, memory.CosineSimilarity(tc.a, tc.b), 0.0)
		})
	}
}
