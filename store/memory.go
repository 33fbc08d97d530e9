package store

import (
	"context"
	"sync"
	"time"
)

type readRecord struct {
	cardID string
	day    string
	at     time.Time
}

// MemoryQuotaStore is an in-memory quota store for development and
// testing.
type MemoryQuotaStore struct {
	mu    sync.Mutex
	reads map[string][]readRecord // viewerID -> reads, oldest first
}

// NewMemoryQuotaStore creates a new in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{
		reads: make(map[string][]readRecord),
	}
}

// Get returns the viewer's read state for the given day.
func (s *MemoryQuotaStore) Get(ctx context.Context, viewerID, day string) (QuotaState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := QuotaState{Day: day}
	for _, r := range s.reads[viewerID] {
		if r.day == day {
			state.ReadIDs = append(state.ReadIDs, r.cardID)
		}
	}
	state.ReadCount = len(state.ReadIDs)
	return state, nil
}

// RecordRead marks a card as read; duplicates within a day are no-ops.
func (s *MemoryQuotaStore) RecordRead(ctx context.Context, viewerID, cardID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reads[viewerID] {
		if r.day == day && r.cardID == cardID {
			return nil
		}
	}
	s.reads[viewerID] = append(s.reads[viewerID], readRecord{cardID: cardID, day: day, at: time.Now()})
	return nil
}

// RecentReads returns the viewer's most recent reads across days,
// newest first.
func (s *MemoryQuotaStore) RecentReads(ctx context.Context, viewerID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.reads[viewerID]
	ids := make([]string, 0, limit)
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(ids) < limit); i-- {
		ids = append(ids, all[i].cardID)
	}
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryQuotaStore) Close() error {
	return nil
}
