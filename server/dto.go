package server

import (
	"time"

	"github.com/bloomscroll/bloomfeed/card"
)

// TrackRequest records one viewer interaction with a card. Only "read"
// and "view" actions count against the daily quota.
type TrackRequest struct {
	ViewerID  string `json:"viewer_id" validate:"required"`
	CardID    string `json:"card_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=view read skip save"`
	DwellTime *int   `json:"dwell_time,omitempty"`
}

// TrackResponse confirms a tracked interaction.
type TrackResponse struct {
	Tracked        bool `json:"tracked"`
	TotalReadToday int  `json:"total_read_today"`
}

// RecentReadsResponse lists a viewer's recent reads for context
// building.
type RecentReadsResponse struct {
	ViewerID      string   `json:"viewer_id"`
	RecentCardIDs []string `json:"recent_card_ids"`
	Count         int      `json:"count"`
}

// CardCreateRequest is the ingestion payload. The embedding is
// computed server-side unless one of the right dimension is supplied.
type CardCreateRequest struct {
	SourceType    string         `json:"source_type" validate:"required,oneof=OWID OPENALEX CARI NEOCITIES"`
	Title         string         `json:"title" validate:"required,max=500"`
	Summary       string         `json:"summary,omitempty"`
	OriginalURL   string         `json:"original_url" validate:"required,url"`
	DataPayload   map[string]any `json:"data_payload,omitempty"`
	Quality       float64        `json:"quality" validate:"gte=0,lte=100"`
	BiasScore     *float64       `json:"bias_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	Constructive  *float64       `json:"constructiveness_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	BlindspotTags []string       `json:"blindspot_tags,omitempty"`
	Embedding     []float64      `json:"embedding,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

func (r CardCreateRequest) toCard() card.Card {
	return card.Card{
		SourceType:            card.SourceType(r.SourceType),
		Title:                 r.Title,
		Summary:               r.Summary,
		OriginalURL:           r.OriginalURL,
		DataPayload:           r.DataPayload,
		Quality:               r.Quality,
		BiasScore:             r.BiasScore,
		ConstructivenessScore: r.Constructive,
		BlindspotTags:         r.BlindspotTags,
		Embedding:             r.Embedding,
		CreatedAt:             r.CreatedAt,
	}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
