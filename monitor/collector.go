package monitor

import (
	"sync"
	"time"
)

// InMemoryCollector aggregates feed stats in memory.
type InMemoryCollector struct {
	mu            sync.RWMutex
	totalFeeds    int
	totalCards    int
	totalFallback int
	totalExhaust  int
	totalDuration time.Duration
}

// NewInMemoryCollector creates a new in-memory collector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{}
}

// RecordFeed accumulates one feed-generation call.
func (c *InMemoryCollector) RecordFeed(stats FeedStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalFeeds++
	c.totalCards += stats.ReturnedCount
	if stats.Fallback {
		c.totalFallback++
	}
	if stats.Exhausted {
		c.totalExhaust++
	}
	c.totalDuration += stats.Duration
}

// Summary returns the aggregated view.
func (c *InMemoryCollector) Summary() FeedSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := FeedSummary{
		TotalFeeds:    c.totalFeeds,
		TotalCards:    c.totalCards,
		TotalFallback: c.totalFallback,
		TotalExhaust:  c.totalExhaust,
	}
	if c.totalFeeds > 0 {
		summary.AvgLatencyMs = float64(c.totalDuration.Milliseconds()) / float64(c.totalFeeds)
	}
	return summary
}

// Reset clears all accumulated stats.
func (c *InMemoryCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalFeeds = 0
	c.totalCards = 0
	c.totalFallback = 0
	c.totalExhaust = 0
	c.totalDuration = 0
}
