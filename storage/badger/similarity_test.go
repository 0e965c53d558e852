package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	const tolerance = 1e-5

	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), tolerance)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-1, -2, -3}
		assert.InDelta(t, -1.0, CosineSimilarity(a, b), tolerance)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		a := []float32{1, 0}
		b := []float32{0, 1}
		assert.InDelta(t, 0.0, CosineSimilarity(a, b), tolerance)
	})

	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{10, 20, 30}
		assert.InDelta(t, 1.0, CosineSimilarity(a, b), tolerance)
	})

	t.Run("zero-length vector scores exactly 0", func(t *testing.T) {
		assert.Equal(t, float32(0), CosineSimilarity(nil, []float32{1, 2}))
		assert.Equal(t, float32(0), CosineSimilarity([]float32{1, 2}, nil))
		assert.Equal(t, float32(0), CosineSimilarity(nil, nil))
	})

	t.Run("zero-magnitude vector scores exactly 0", func(t *testing.T) {
		assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
	})

	t.Run("mismatched lengths use shorter for dot product", func(t *testing.T) {
		a := []float32{1, 0, 0}
		b := []float32{1, 0}
		score := CosineSimilarity(a, b)
		assert.Greater(t, score, float32(0))
		assert.LessOrEqual(t, score, float32(1))
	})
}
