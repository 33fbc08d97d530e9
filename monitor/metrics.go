// Package monitor collects feed-generation metrics.
package monitor

import "time"

// FeedStats describes one feed-generation call.
type FeedStats struct {
	CandidateCount int           `json:"candidate_count"`
	ReturnedCount  int           `json:"returned_count"`
	Fallback       bool          `json:"fallback"`
	Exhausted      bool          `json:"exhausted"`
	Duration       time.Duration `json:"duration"`
}

// FeedSummary aggregates stats across calls.
type FeedSummary struct {
	TotalFeeds    int     `json:"total_feeds"`
	TotalCards    int     `json:"total_cards"`
	TotalFallback int     `json:"total_fallback"`
	TotalExhaust  int     `json:"total_exhausted"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// Collector receives per-call feed stats.
type Collector interface {
	RecordFeed(stats FeedStats)
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

// NewNoOpCollector creates a collector that discards everything.
func NewNoOpCollector() *NoOpCollector {
	return &NoOpCollector{}
}

func (c *NoOpCollector) RecordFeed(stats FeedStats) {}
