// Package embed maps text to fixed-dimension vectors. Providers are
// passed into the engine explicitly so tests can substitute a
// deterministic stub.
package embed

import "context"

// DefaultDimension matches the MiniLM sentence-transformer family.
const DefaultDimension = 384

// Provider generates embeddings.
type Provider interface {
	// Embed maps text to a vector of Dimension() components.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension is the fixed length of every returned vector.
	Dimension() int
}

// Config configures an HTTP-backed provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int // seconds

	// Dimension of the model's output. Default: DefaultDimension.
	Dimension int
}
