// Package store persists per-viewer, per-day read state. The curation
// engine treats a QuotaState as an input snapshot; recording reads is
// the caller's follow-up action.
package store

import "context"

// QuotaState is one viewer's consumption for one calendar day.
// ReadCount is monotonically non-decreasing within the day and starts
// at zero on a new day; reads are set-semantic, so re-reading a card
// never double-counts.
type QuotaState struct {
	Day       string   `json:"day"`
	ReadCount int      `json:"read_count"`
	ReadIDs   []string `json:"read_ids"`
}

// HasRead reports whether the card was already read on this day.
func (q QuotaState) HasRead(cardID string) bool {
	for _, id := range q.ReadIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// QuotaStore defines read-state persistence. Implementations must make
// RecordRead atomic and idempotent: concurrent requests for the same
// viewer never lose or double-count a read.
type QuotaStore interface {
	// Get returns the viewer's state for the given day key. A day with
	// no reads yields a zero state, which is how the daily reset
	// manifests: rows from previous days simply stop matching.
	Get(ctx context.Context, viewerID, day string) (QuotaState, error)

	// RecordRead marks a card as read for the day. Recording the same
	// card twice is a no-op.
	RecordRead(ctx context.Context, viewerID, cardID, day string) error

	// RecentReads returns the viewer's most recent read card IDs across
	// days, newest first.
	RecentReads(ctx context.Context, viewerID string, limit int) ([]string, error)

	// Close releases resources.
	Close() error
}
