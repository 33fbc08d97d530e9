// Package ingest embeds and stores incoming cards.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/embed"
	"github.com/bloomscroll/bloomfeed/logging"
	"github.com/bloomscroll/bloomfeed/vector"
)

// Ingestor computes an embedding for a card and upserts it into the
// card store.
type Ingestor struct {
	provider embed.Provider
	cards    vector.Store
}

// New creates an Ingestor.
func New(provider embed.Provider, cards vector.Store) *Ingestor {
	return &Ingestor{provider: provider, cards: cards}
}

// Ingest embeds and stores one card, assigning an ID and creation time
// when absent. A card that already carries an embedding of the right
// dimension is stored as-is.
func (i *Ingestor) Ingest(ctx context.Context, c card.Card) (card.Card, error) {
	if strings.TrimSpace(c.Title) == "" {
		return card.Card{}, fmt.Errorf("card title is empty")
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	if len(c.Embedding) != i.provider.Dimension() {
		embedding, err := i.provider.Embed(ctx, c.EmbeddingText())
		if err != nil {
			return card.Card{}, fmt.Errorf("embed card: %w", err)
		}
		if vector.IsZero(embedding) {
			// Stored without embedding; retrieval skips it until
			// re-ingested with usable text.
			logging.Warn().Str("card_id", c.ID).Msg("embedding came back zero, storing card without one")
			embedding = nil
		}
		c.Embedding = embedding
	}

	if err := i.cards.Upsert(ctx, []card.Card{c}); err != nil {
		return card.Card{}, fmt.Errorf("store card: %w", err)
	}

	logging.Debug().Str("card_id", c.ID).Str("source", string(c.SourceType)).Msg("card ingested")
	return c, nil
}
