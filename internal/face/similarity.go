package face

import (
	"errors"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("face: embedding dimension mismatch")
	ErrEmptyEmbedding    = errors.New("face: empty embedding")
)

// Cosine returns the cosine similarity of a and b in [-1, 1]. A zero vector
// has no direction and scores 0 against anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// float error can push identical vectors a hair past 1
	return math.Max(-1, math.Min(1, s)), nil
}
