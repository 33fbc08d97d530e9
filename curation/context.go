package curation

import "github.com/bloomscroll/bloomfeed/vector"

// ContextWindow is the number of most-recent reads that form the
// viewer's context.
const ContextWindow = 5

// BuildContext reduces a viewer's recent read-card vectors into a
// single centroid. Returns nil when no usable vector exists or the
// centroid carries no direction (all zeros); both mean no-context,
// which is a valid state, not an error.
func BuildContext(vectors [][]float64) []float64 {
	centroid := vector.Centroid(vectors)
	if centroid == nil || vector.IsZero(centroid) {
		return nil
	}
	return centroid
}

// WindowRecentReads keeps only the most recent ContextWindow entries.
// Input order is most-recent-first, matching the interactions API.
func WindowRecentReads(ids []string, window int) []string {
	if window <= 0 {
		window = ContextWindow
	}
	if len(ids) <= window {
		return ids
	}
	return ids[:window]
}
