package curation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/logging"
	"github.com/bloomscroll/bloomfeed/monitor"
	"github.com/bloomscroll/bloomfeed/store"
	"github.com/bloomscroll/bloomfeed/vector"
)

// FailMode decides how a quota-storage read failure is treated.
type FailMode string

const (
	// FailOpen assumes zero consumption when quota state cannot be
	// read: the viewer gets a feed, possibly past their limit.
	FailOpen FailMode = "open"

	// FailClosed assumes the allotment is exhausted when quota state
	// cannot be read: the viewer gets a completion page.
	FailClosed FailMode = "closed"
)

// DefaultMaxPageSize caps a single page request.
const DefaultMaxPageSize = 50

// defaultCandidateMultiplier controls how many zone candidates are
// fetched relative to the page size, leaving the balancer enough items
// per source.
const defaultCandidateMultiplier = 3

// Options configures an Engine. The zero value gets the documented
// defaults.
type Options struct {
	Zone                Zone
	QualityFloor        float64
	DailyLimit          int
	MaxPageSize         int
	CandidateMultiplier int
	SourcePriority      []card.SourceType
	Location            *time.Location
	QuotaFailMode       FailMode

	// Now is the reference clock; overridable in tests.
	Now func() time.Time

	Collector monitor.Collector
}

func (o *Options) applyDefaults() {
	if o.Zone == (Zone{}) {
		o.Zone = DefaultZone()
	}
	if o.QualityFloor == 0 {
		o.QualityFloor = DefaultQualityFloor
	}
	if o.DailyLimit <= 0 {
		o.DailyLimit = DefaultDailyLimit
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = DefaultMaxPageSize
	}
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = defaultCandidateMultiplier
	}
	if len(o.SourcePriority) == 0 {
		o.SourcePriority = card.DefaultSourcePriority
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.QuotaFailMode == "" {
		o.QuotaFailMode = FailOpen
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Collector == nil {
		o.Collector = monitor.NewNoOpCollector()
	}
}

// FeedRequest is one page request for one viewer.
type FeedRequest struct {
	ViewerID string

	// RecentReadIDs is the viewer-supplied recent-read history, most
	// recent first. Only the first ContextWindow entries are used.
	RecentReadIDs []string

	Page  int
	Limit int
}

// CardMeta carries the curation rationale alongside a card.
type CardMeta struct {
	BlindspotTags    []string `json:"blindspot_tags,omitempty"`
	ReasonTag        Reason   `json:"reason_tag"`
	SerendipityScore float64  `json:"serendipity_score"`
}

// CardView is a card as it appears in a feed page.
type CardView struct {
	ID                    string          `json:"id"`
	SourceType            card.SourceType `json:"source_type"`
	Title                 string          `json:"title"`
	Summary               string          `json:"summary,omitempty"`
	OriginalURL           string          `json:"original_url"`
	DataPayload           map[string]any  `json:"data_payload,omitempty"`
	BiasScore             *float64        `json:"bias_score,omitempty"`
	ConstructivenessScore *float64        `json:"constructiveness_score,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	Meta                  CardMeta        `json:"meta"`
}

// Pagination describes the page and today's consumption.
type Pagination struct {
	Page           int  `json:"page"`
	Limit          int  `json:"limit"`
	HasNextPage    bool `json:"has_next_page"`
	TotalReadToday int  `json:"total_read_today"`
	DailyLimit     int  `json:"daily_limit"`
}

// FeedPage is one generated page. Constructed fresh per call and never
// retained by the engine.
type FeedPage struct {
	Cards      []CardView  `json:"cards"`
	Pagination Pagination  `json:"pagination"`
	Completion *Completion `json:"completion"`
}

// Engine orchestrates context building, zone filtering, reason
// tagging, source interleaving and quota arithmetic into feed pages.
// It holds no per-viewer state; quota snapshots come from the store
// per call, and recording reads afterwards is the caller's job.
type Engine struct {
	opts   Options
	cards  vector.Store
	quotas store.QuotaStore
	log    zerolog.Logger
}

// NewEngine creates an engine over the given card store and quota
// store.
func NewEngine(cards vector.Store, quotas store.QuotaStore, opts Options) (*Engine, error) {
	opts.applyDefaults()
	if err := opts.Zone.Validate(); err != nil {
		return nil, err
	}
	if opts.QualityFloor < 0 || opts.QualityFloor > 100 {
		return nil, fmt.Errorf("quality floor %g outside [0, 100]", opts.QualityFloor)
	}

	return &Engine{
		opts:   opts,
		cards:  cards,
		quotas: quotas,
		log:    logging.With("curation"),
	}, nil
}

// GenerateFeed produces one feed page. It reads but never mutates
// quota state.
func (e *Engine) GenerateFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	start := e.opts.Now()
	day := DayKey(start, e.opts.Location)

	quotaState, err := e.quotas.Get(ctx, req.ViewerID, day)
	if err != nil {
		quotaState = e.quotaFailure(req.ViewerID, day, err)
	}

	requested := clamp(req.Limit, 1, e.opts.MaxPageSize)
	page := ComputePage(quotaState.ReadCount, requested, e.opts.DailyLimit)

	if page.Exhausted() {
		e.opts.Collector.RecordFeed(monitor.FeedStats{Exhausted: true, Duration: e.opts.Now().Sub(start)})
		return e.assemble(req, quotaState, page, nil), nil
	}

	recentIDs := WindowRecentReads(req.RecentReadIDs, ContextWindow)
	contextVec := e.buildContext(ctx, recentIDs)

	exclude := append(append([]string{}, quotaState.ReadIDs...), recentIDs...)
	fetchLimit := page.EffectiveLimit * e.opts.CandidateMultiplier

	tagged, fallback := e.selectCards(ctx, contextVec, exclude, fetchLimit)
	candidateCount := len(tagged)

	if !fallback {
		tagged = Interleave(tagged, e.opts.SourcePriority)
	}
	if len(tagged) > page.EffectiveLimit {
		tagged = tagged[:page.EffectiveLimit]
	}

	feed := e.assemble(req, quotaState, page, tagged)

	e.opts.Collector.RecordFeed(monitor.FeedStats{
		CandidateCount: candidateCount,
		ReturnedCount:  len(feed.Cards),
		Fallback:       fallback,
		Duration:       e.opts.Now().Sub(start),
	})
	e.log.Debug().
		Str("viewer_id", req.ViewerID).
		Int("cards", len(feed.Cards)).
		Bool("fallback", fallback).
		Msg("feed generated")

	return feed, nil
}

// buildContext fetches the recent-read vectors and averages them.
// Unknown ids are dropped by the store; any failure degrades to
// no-context rather than failing the request.
func (e *Engine) buildContext(ctx context.Context, recentIDs []string) []float64 {
	if len(recentIDs) == 0 {
		return nil
	}

	vectors, err := e.cards.Vectors(ctx, recentIDs)
	if err != nil {
		e.log.Warn().Err(err).Msg("context vectors unavailable, using no-context fallback")
		return nil
	}
	return BuildContext(vectors)
}

// selectCards runs the serendipity-zone query, or the quality/recency
// fallback when there is no context or the store fails. The returned
// bool reports whether the fallback path was taken.
func (e *Engine) selectCards(ctx context.Context, contextVec []float64, exclude []string, limit int) ([]TaggedCandidate, bool) {
	if contextVec != nil {
		candidates, err := e.cards.QueryCandidates(ctx, vector.CandidateQuery{
			Context:      contextVec,
			MinDistance:  e.opts.Zone.Min,
			MaxDistance:  e.opts.Zone.Max,
			QualityFloor: e.opts.QualityFloor,
			ExcludeIDs:   exclude,
			Limit:        limit,
		})
		if err == nil {
			return TagReasons(SelectCandidates(candidates, e.opts.Zone), true), false
		}
		e.log.Warn().Err(err).Msg("candidate query failed, using quality/recency fallback")
	}

	recent, err := e.cards.Recent(ctx, vector.RecentQuery{
		QualityFloor: e.opts.QualityFloor,
		ExcludeIDs:   exclude,
		Limit:        limit,
	})
	if err != nil {
		e.log.Error().Err(err).Msg("fallback query failed, serving empty page")
		return nil, true
	}
	return TagReasons(recent, false), true
}

func (e *Engine) assemble(req FeedRequest, quotaState store.QuotaState, page PageQuota, tagged []TaggedCandidate) *FeedPage {
	cards := make([]CardView, 0, len(tagged))
	for _, t := range tagged {
		c := t.Card
		cards = append(cards, CardView{
			ID:                    c.ID,
			SourceType:            c.SourceType,
			Title:                 c.Title,
			Summary:               c.Summary,
			OriginalURL:           c.OriginalURL,
			DataPayload:           c.DataPayload,
			BiasScore:             c.BiasScore,
			ConstructivenessScore: c.ConstructivenessScore,
			CreatedAt:             c.CreatedAt,
			Meta: CardMeta{
				BlindspotTags:    c.BlindspotTags,
				ReasonTag:        t.Reason,
				SerendipityScore: e.opts.Zone.SerendipityScore(t.Distance),
			},
		})
	}

	pageNum := req.Page
	if pageNum < 1 {
		pageNum = 1
	}

	return &FeedPage{
		Cards: cards,
		Pagination: Pagination{
			Page:           pageNum,
			Limit:          page.EffectiveLimit,
			HasNextPage:    page.HasNextPage,
			TotalReadToday: quotaState.ReadCount,
			DailyLimit:     e.opts.DailyLimit,
		},
		Completion: page.Completion,
	}
}

// quotaFailure resolves a quota-storage read error per the configured
// fail mode.
func (e *Engine) quotaFailure(viewerID, day string, err error) store.QuotaState {
	if e.opts.QuotaFailMode == FailClosed {
		e.log.Error().Err(err).Str("viewer_id", viewerID).Msg("quota read failed, failing closed")
		return store.QuotaState{Day: day, ReadCount: e.opts.DailyLimit}
	}
	e.log.Error().Err(err).Str("viewer_id", viewerID).Msg("quota read failed, failing open")
	return store.QuotaState{Day: day}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
