// Package card defines the content unit served by the curation engine.
package card

import "time"

// SourceType identifies the content source a card was ingested from.
type SourceType string

const (
	SourceOWID      SourceType = "OWID"
	SourceOpenAlex  SourceType = "OPENALEX"
	SourceCARI      SourceType = "CARI"
	SourceNeocities SourceType = "NEOCITIES"
)

// DefaultSourcePriority is the order sources are interleaved in when no
// explicit priority is configured.
var DefaultSourcePriority = []SourceType{
	SourceOWID,
	SourceOpenAlex,
	SourceCARI,
	SourceNeocities,
}

// Card is an immutable content unit. The engine only reads cards; they
// are owned by the content store.
type Card struct {
	ID          string         `json:"id"`
	SourceType  SourceType     `json:"source_type"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary,omitempty"`
	OriginalURL string         `json:"original_url"`
	DataPayload map[string]any `json:"data_payload,omitempty"`

	// Quality is a 0-100 score used for the eligibility floor and the
	// no-context fallback ranking.
	Quality float64 `json:"quality"`

	// BiasScore and ConstructivenessScore are produced by an external
	// analysis collaborator and passed through untouched.
	BiasScore             *float64 `json:"bias_score,omitempty"`
	ConstructivenessScore *float64 `json:"constructiveness_score,omitempty"`

	// BlindspotTags mark content representing an underrepresented
	// perspective. Any non-empty set wins the reason classification.
	BlindspotTags []string `json:"blindspot_tags,omitempty"`

	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasBlindspot reports whether the card carries any blindspot tag.
func (c Card) HasBlindspot() bool {
	return len(c.BlindspotTags) > 0
}

// EmbeddingText is the text an embedding is computed from at ingestion.
func (c Card) EmbeddingText() string {
	if c.Summary == "" {
		return c.Title
	}
	return c.Title + "\n" + c.Summary
}
