package curation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/store"
	"github.com/bloomscroll/bloomfeed/vector"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

// embeddingAt returns a unit vector at cosine distance d from (1, 0).
func embeddingAt(d float64) []float64 {
	cos := 1 - d
	return []float64{cos, math.Sqrt(1 - cos*cos)}
}

func engineCard(id string, src card.SourceType, quality float64, emb []float64) card.Card {
	return card.Card{
		ID:         id,
		SourceType: src,
		Title:      "title " + id,
		Quality:    quality,
		Embedding:  emb,
		CreatedAt:  testNow.Add(-time.Hour),
	}
}

func newTestEngine(t *testing.T, cards vector.Store, quotas store.QuotaStore, opts Options) *Engine {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	eng, err := NewEngine(cards, quotas, opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestGenerateFeedSerendipityOrder(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	seed := []card.Card{
		engineCard("read-1", card.SourceOWID, 90, []float64{1, 0}),
		engineCard("deep", card.SourceOWID, 85, embeddingAt(0.35)),
		engineCard("mid", card.SourceOWID, 80, embeddingAt(0.5)),
		engineCard("far", card.SourceOWID, 75, embeddingAt(0.7)),
		engineCard("too-close", card.SourceOWID, 95, embeddingAt(0.1)),
		engineCard("low-quality", card.SourceOWID, 30, embeddingAt(0.55)),
	}
	if err := cards.Upsert(ctx, seed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	eng := newTestEngine(t, cards, quotas, Options{})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{
		ViewerID:      "viewer-1",
		RecentReadIDs: []string{"read-1"},
		Page:          1,
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}

	wantOrder := []string{"mid", "far", "deep"}
	if len(feed.Cards) != len(wantOrder) {
		t.Fatalf("got %d cards, want %d", len(feed.Cards), len(wantOrder))
	}
	for i, id := range wantOrder {
		if feed.Cards[i].ID != id {
			t.Errorf("cards[%d] = %q, want %q", i, feed.Cards[i].ID, id)
		}
	}

	wantReasons := map[string]Reason{
		"mid":  ReasonPerspectiveShift,
		"far":  ReasonExplore,
		"deep": ReasonDeepDive,
	}
	for _, cv := range feed.Cards {
		if cv.Meta.ReasonTag != wantReasons[cv.ID] {
			t.Errorf("%s reason = %q, want %q", cv.ID, cv.Meta.ReasonTag, wantReasons[cv.ID])
		}
	}

	// Midpoint of [0.3, 0.8] is 0.55; distance 0.5 scores 0.8.
	if got := feed.Cards[0].Meta.SerendipityScore; math.Abs(got-0.8) > 1e-9 {
		t.Errorf("mid serendipity score = %v, want 0.8", got)
	}

	if feed.Completion != nil {
		t.Error("unexpected completion for a fresh viewer")
	}
	if feed.Pagination.TotalReadToday != 0 || feed.Pagination.DailyLimit != DefaultDailyLimit {
		t.Errorf("pagination = %+v", feed.Pagination)
	}
}

func TestGenerateFeedInterleavesSources(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	seed := []card.Card{
		engineCard("read-1", card.SourceOWID, 90, []float64{1, 0}),
		engineCard("owid-1", card.SourceOWID, 80, embeddingAt(0.55)),
		engineCard("owid-2", card.SourceOWID, 80, embeddingAt(0.5)),
		engineCard("alex-1", card.SourceOpenAlex, 80, embeddingAt(0.6)),
	}
	if err := cards.Upsert(ctx, seed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	eng := newTestEngine(t, cards, quotas, Options{})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{
		ViewerID:      "viewer-1",
		RecentReadIDs: []string{"read-1"},
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if len(feed.Cards) != 3 {
		t.Fatalf("got %d cards, want 3", len(feed.Cards))
	}
	for i := 1; i < len(feed.Cards); i++ {
		if feed.Cards[i].SourceType == feed.Cards[i-1].SourceType &&
			feed.Cards[i].SourceType == card.SourceOpenAlex {
			t.Errorf("consecutive %s cards at %d", feed.Cards[i].SourceType, i)
		}
	}
	if feed.Cards[1].SourceType != card.SourceOpenAlex {
		t.Errorf("cards[1] source = %s, want interleaved %s", feed.Cards[1].SourceType, card.SourceOpenAlex)
	}
}

func TestGenerateFeedFallbackNoContext(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	seed := []card.Card{
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
		engineCard("good", card.SourceOpenAlex, 85, embeddingAt(0.6)),
		engineCard("fine", card.SourceCARI, 75, embeddingAt(0.4)),
	}
	if err := cards.Upsert(ctx, seed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	eng := newTestEngine(t, cards, quotas, Options{})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{ViewerID: "new-viewer", Limit: 10})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}

	// Quality-descending order, untouched by the balancer.
	wantOrder := []string{"best", "good", "fine"}
	for i, id := range wantOrder {
		if feed.Cards[i].ID != id {
			t.Errorf("cards[%d] = %q, want %q", i, feed.Cards[i].ID, id)
		}
	}
	for _, cv := range feed.Cards {
		if cv.Meta.ReasonTag != ReasonRecent {
			t.Errorf("%s reason = %q, want %q", cv.ID, cv.Meta.ReasonTag, ReasonRecent)
		}
	}
}

func TestGenerateFeedUnknownRecentIDs(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	if err := cards.Upsert(ctx, []card.Card{
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	eng := newTestEngine(t, cards, quotas, Options{})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{
		ViewerID:      "viewer-1",
		RecentReadIDs: []string{"ghost-1", "ghost-2"},
		Limit:         5,
	})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if len(feed.Cards) != 1 || feed.Cards[0].Meta.ReasonTag != ReasonRecent {
		t.Errorf("unknown history should fall back to recency, got %+v", feed.Cards)
	}
}

// erroringCardStore fails the zone query but serves the fallback.
type erroringCardStore struct {
	*vector.MemoryStore
}

func (s *erroringCardStore) QueryCandidates(ctx context.Context, q vector.CandidateQuery) ([]vector.Candidate, error) {
	return nil, errors.New("index unavailable")
}

func TestGenerateFeedVectorQueryFailure(t *testing.T) {
	ctx := context.Background()
	mem := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	if err := mem.Upsert(ctx, []card.Card{
		engineCard("read-1", card.SourceOWID, 90, []float64{1, 0}),
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
		engineCard("good", card.SourceOpenAlex, 85, embeddingAt(0.6)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	eng := newTestEngine(t, &erroringCardStore{mem}, quotas, Options{})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{
		ViewerID:      "viewer-1",
		RecentReadIDs: []string{"read-1"},
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if len(feed.Cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(feed.Cards))
	}
	if feed.Cards[0].ID != "best" || feed.Cards[0].Meta.ReasonTag != ReasonRecent {
		t.Errorf("fallback not applied: %+v", feed.Cards[0])
	}
}

func TestGenerateFeedExhausted(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()
	day := DayKey(testNow, time.UTC)

	if err := cards.Upsert(ctx, []card.Card{
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := quotas.RecordRead(ctx, "viewer-1", id, day); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}

	eng := newTestEngine(t, cards, quotas, Options{DailyLimit: 3})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{ViewerID: "viewer-1", Limit: 10})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if len(feed.Cards) != 0 {
		t.Errorf("exhausted viewer got %d cards", len(feed.Cards))
	}
	if feed.Completion == nil {
		t.Fatal("expected completion card")
	}
	if feed.Completion.Stats.ReadCount != 3 || feed.Completion.Stats.DailyLimit != 3 {
		t.Errorf("completion stats = %+v", feed.Completion.Stats)
	}
	if feed.Pagination.HasNextPage {
		t.Error("exhausted page claims a next page")
	}
}

func TestGenerateFeedClampedToRemaining(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()
	day := DayKey(testNow, time.UTC)

	if err := cards.Upsert(ctx, []card.Card{
		engineCard("c1", card.SourceOWID, 95, embeddingAt(0.5)),
		engineCard("c2", card.SourceOWID, 90, embeddingAt(0.6)),
		engineCard("c3", card.SourceOWID, 85, embeddingAt(0.4)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := quotas.RecordRead(ctx, "viewer-1", id, day); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}

	eng := newTestEngine(t, cards, quotas, Options{DailyLimit: 5})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{ViewerID: "viewer-1", Limit: 10})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if len(feed.Cards) != 2 {
		t.Fatalf("got %d cards, want remaining allotment of 2", len(feed.Cards))
	}
	if feed.Pagination.Limit != 2 || feed.Pagination.HasNextPage {
		t.Errorf("pagination = %+v", feed.Pagination)
	}
	if feed.Completion == nil || feed.Completion.Stats.ReadCount != 5 {
		t.Errorf("final page should project full consumption, got %+v", feed.Completion)
	}
}

func TestGenerateFeedNewDayResets(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()
	yesterday := DayKey(testNow.AddDate(0, 0, -1), time.UTC)

	if err := cards.Upsert(ctx, []card.Card{
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := quotas.RecordRead(ctx, "viewer-1", id, yesterday); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}

	eng := newTestEngine(t, cards, quotas, Options{DailyLimit: 3})
	feed, err := eng.GenerateFeed(ctx, FeedRequest{ViewerID: "viewer-1", Limit: 5})
	if err != nil {
		t.Fatalf("GenerateFeed: %v", err)
	}
	if feed.Completion != nil {
		t.Error("yesterday's reads should not count today")
	}
	if feed.Pagination.TotalReadToday != 0 {
		t.Errorf("TotalReadToday = %d, want 0", feed.Pagination.TotalReadToday)
	}
	if len(feed.Cards) != 1 {
		t.Errorf("got %d cards, want 1", len(feed.Cards))
	}
}

// erroringQuotaStore fails every quota read.
type erroringQuotaStore struct{}

func (erroringQuotaStore) Get(ctx context.Context, viewerID, day string) (store.QuotaState, error) {
	return store.QuotaState{}, errors.New("quota storage down")
}
func (erroringQuotaStore) RecordRead(ctx context.Context, viewerID, cardID, day string) error {
	return errors.New("quota storage down")
}
func (erroringQuotaStore) RecentReads(ctx context.Context, viewerID string, limit int) ([]string, error) {
	return nil, errors.New("quota storage down")
}
func (erroringQuotaStore) Close() error { return nil }

func TestGenerateFeedQuotaFailModes(t *testing.T) {
	ctx := context.Background()
	cards := vector.NewMemoryStore()
	if err := cards.Upsert(ctx, []card.Card{
		engineCard("best", card.SourceOWID, 95, embeddingAt(0.5)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	open := newTestEngine(t, cards, erroringQuotaStore{}, Options{QuotaFailMode: FailOpen})
	feed, err := open.GenerateFeed(ctx, FeedRequest{ViewerID: "viewer-1", Limit: 5})
	if err != nil {
		t.Fatalf("GenerateFeed (open): %v", err)
	}
	if len(feed.Cards) != 1 || feed.Completion != nil {
		t.Errorf("fail-open should serve a feed, got %d cards completion=%v", len(feed.Cards), feed.Completion)
	}

	closed := newTestEngine(t, cards, erroringQuotaStore{}, Options{QuotaFailMode: FailClosed})
	feed, err = closed.GenerateFeed(ctx, FeedRequest{ViewerID: "viewer-1", Limit: 5})
	if err != nil {
		t.Fatalf("GenerateFeed (closed): %v", err)
	}
	if len(feed.Cards) != 0 || feed.Completion == nil {
		t.Errorf("fail-closed should serve a completion page, got %d cards", len(feed.Cards))
	}
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	cards := vector.NewMemoryStore()
	quotas := store.NewMemoryQuotaStore()

	if _, err := NewEngine(cards, quotas, Options{Zone: Zone{Min: 0.8, Max: 0.3}}); err == nil {
		t.Error("inverted zone accepted")
	}
	if _, err := NewEngine(cards, quotas, Options{QualityFloor: 150}); err == nil {
		t.Error("quality floor above 100 accepted")
	}
}
