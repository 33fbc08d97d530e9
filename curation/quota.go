package curation

import "time"

// DefaultDailyLimit is the number of cards a viewer may read per
// calendar day.
const DefaultDailyLimit = 20

// Completion is attached to the page on which the viewer reaches (or
// has already reached) the daily limit.
type Completion struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Subtitle string          `json:"subtitle"`
	Stats    CompletionStats `json:"stats"`
}

// CompletionStats reports consumption at the moment of completion.
type CompletionStats struct {
	ReadCount  int `json:"read_count"`
	DailyLimit int `json:"daily_limit"`
}

// PageQuota is the ledger's verdict for one page request.
type PageQuota struct {
	EffectiveLimit int
	HasNextPage    bool
	Completion     *Completion
}

// Exhausted reports whether the allotment was already spent before this
// page.
func (p PageQuota) Exhausted() bool {
	return p.EffectiveLimit == 0
}

// ComputePage decides how many cards this page may carry, whether more
// pages follow today, and whether a completion record attaches. Pure
// arithmetic over same-day counters; the daily reset itself is the
// storage collaborator's job, so readCountToday is always a same-day
// value here.
func ComputePage(readCountToday, requestedLimit, dailyLimit int) PageQuota {
	if readCountToday >= dailyLimit {
		return PageQuota{
			EffectiveLimit: 0,
			HasNextPage:    false,
			Completion:     newCompletion(readCountToday, dailyLimit),
		}
	}

	effective := requestedLimit
	if remaining := dailyLimit - readCountToday; effective > remaining {
		effective = remaining
	}
	if effective < 1 {
		effective = 1
	}

	quota := PageQuota{
		EffectiveLimit: effective,
		HasNextPage:    readCountToday+effective < dailyLimit,
	}
	if readCountToday+effective == dailyLimit {
		quota.Completion = newCompletion(readCountToday+effective, dailyLimit)
	}
	return quota
}

func newCompletion(readCount, dailyLimit int) *Completion {
	return &Completion{
		Type:     "COMPLETION",
		Message:  "That's your bloom for today",
		Subtitle: "The field regrows overnight. Come back tomorrow.",
		Stats:    CompletionStats{ReadCount: readCount, DailyLimit: dailyLimit},
	}
}

// DayKey formats the calendar day of t in the given location. Quota
// state is keyed by this value, which makes the timezone an explicit
// parameter instead of an artifact of string comparison.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}
