package vector

import (
	"context"
	"sort"
	"sync"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/logging"
)

// MemoryStore is an in-memory card store for development and testing.
type MemoryStore struct {
	mu    sync.RWMutex
	cards map[string]card.Card
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards: make(map[string]card.Card),
	}
}

// Upsert stores cards, updating existing ones by ID.
func (s *MemoryStore) Upsert(ctx context.Context, cards []card.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return nil
}

// Get returns a single card by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[id]
	if !ok {
		return card.Card{}, ErrNotFound
	}
	return c, nil
}

// QueryCandidates finds serendipity-zone candidates by brute-force
// cosine distance over all stored cards.
func (s *MemoryStore) QueryCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := excludeSet(q.ExcludeIDs)

	results := make([]Candidate, 0, len(s.cards))
	for _, c := range s.cards {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		if c.Quality < q.QualityFloor {
			continue
		}
		if len(c.Embedding) == 0 {
			logging.Warn().Str("card_id", c.ID).Msg("card has no embedding, skipped")
			continue
		}

		cand := Candidate{Card: c}
		if q.Context != nil {
			cand.Distance = CosineDistance(c.Embedding, q.Context)
			if cand.Distance < q.MinDistance || cand.Distance > q.MaxDistance {
				continue
			}
		}
		results = append(results, cand)
	}

	// Newest first so a Limit cut keeps fresh content, matching the
	// pgvector store's ORDER BY created_at DESC.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Card.CreatedAt.After(results[j].Card.CreatedAt)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results, nil
}

// Recent returns eligible cards ranked by quality descending, then
// recency.
func (s *MemoryStore) Recent(ctx context.Context, q RecentQuery) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := excludeSet(q.ExcludeIDs)

	results := make([]Candidate, 0, len(s.cards))
	for _, c := range s.cards {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		if c.Quality < q.QualityFloor {
			continue
		}
		results = append(results, Candidate{Card: c})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Card.Quality != results[j].Card.Quality {
			return results[i].Card.Quality > results[j].Card.Quality
		}
		return results[i].Card.CreatedAt.After(results[j].Card.CreatedAt)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results, nil
}

// Vectors returns embeddings for the given IDs in input order, dropping
// unknown IDs and cards without embeddings.
func (s *MemoryStore) Vectors(ctx context.Context, ids []string) ([][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vectors := make([][]float64, 0, len(ids))
	for _, id := range ids {
		c, ok := s.cards[id]
		if !ok || len(c.Embedding) == 0 {
			continue
		}
		vectors = append(vectors, c.Embedding)
	}
	return vectors, nil
}

// Delete removes cards by ID.
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.cards, id)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Count returns the number of cards in the store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}
