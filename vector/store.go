// Package vector provides card storage and cosine-distance retrieval
// for the curation engine.
package vector

import (
	"context"
	"errors"

	"github.com/bloomscroll/bloomfeed/card"
)

// ErrNotFound is returned when a card is not found.
var ErrNotFound = errors.New("card not found")

// Candidate is a card paired with its cosine distance to the query
// context. Distance is 0 when the query carried no context.
type Candidate struct {
	Card     card.Card `json:"card"`
	Distance float64   `json:"distance"`
}

// CandidateQuery selects quality-eligible, not-yet-read cards whose
// distance to Context falls inside [MinDistance, MaxDistance], bounds
// inclusive.
type CandidateQuery struct {
	// Context is the viewer's context centroid. Nil disables distance
	// filtering; candidates come back with Distance 0.
	Context []float64

	MinDistance  float64
	MaxDistance  float64
	QualityFloor float64

	// ExcludeIDs are cards never to return (already read today plus
	// the context cards themselves).
	ExcludeIDs []string

	// Limit caps the result size. Zero means no cap.
	Limit int
}

// RecentQuery selects quality-eligible, not-yet-read cards ranked by
// quality descending, then recency. This is the no-context fallback.
type RecentQuery struct {
	QualityFloor float64
	ExcludeIDs   []string
	Limit        int
}

// Store provides card storage and similarity retrieval.
type Store interface {
	// Upsert stores cards, updating existing ones by ID.
	Upsert(ctx context.Context, cards []card.Card) error

	// Get returns a single card by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (card.Card, error)

	// QueryCandidates returns serendipity-zone candidates with their
	// distance to the query context attached. Cards without an
	// embedding are skipped.
	QueryCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)

	// Recent returns the quality/recency fallback ranking.
	Recent(ctx context.Context, q RecentQuery) ([]Candidate, error)

	// Vectors returns the embeddings for the given card IDs, in input
	// order. Unknown IDs and cards without embeddings are dropped.
	Vectors(ctx context.Context, ids []string) ([][]float64, error)

	// Delete removes cards by ID.
	Delete(ctx context.Context, ids []string) error

	// Close releases resources.
	Close() error
}

func excludeSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
