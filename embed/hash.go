package embed

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/bloomscroll/bloomfeed/vector"
)

// HashProvider is a deterministic, offline embedding stub: the same
// text always maps to the same unit vector. It has no semantic power
// and exists for tests, examples and running without a model backend.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a deterministic provider with the given
// dimension (DefaultDimension when <= 0).
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashProvider{dimension: dimension}
}

// Embed maps text to a unit vector seeded from an FNV hash of overlapping
// trigrams, so texts sharing substrings land closer than unrelated ones.
func (p *HashProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	v := make([]float64, p.dimension)
	if text == "" {
		return v, nil
	}

	for i := 0; i < len(text); i++ {
		end := i + 3
		if end > len(text) {
			end = len(text)
		}
		h := fnv.New64a()
		h.Write([]byte(text[i:end]))
		sum := h.Sum64()

		idx := int(sum % uint64(p.dimension))
		// Deterministic pseudo-weight in (-1, 1).
		v[idx] += math.Sin(float64(sum % 360))
	}

	return vector.Normalize(v), nil
}

// Dimension returns the configured output dimension.
func (p *HashProvider) Dimension() int {
	return p.dimension
}
