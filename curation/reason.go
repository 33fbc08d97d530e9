package curation

import "github.com/bloomscroll/bloomfeed/vector"

// Reason explains why a card was surfaced.
type Reason string

const (
	// ReasonBlindspotBreaker marks content tagged as an
	// underrepresented perspective for the viewer.
	ReasonBlindspotBreaker Reason = "BLINDSPOT_BREAKER"

	// ReasonExplore marks content far from recent reading (distance
	// above 0.6).
	ReasonExplore Reason = "EXPLORE"

	// ReasonPerspectiveShift marks related-but-novel content (distance
	// in (0.4, 0.6]).
	ReasonPerspectiveShift Reason = "PERSPECTIVE_SHIFT"

	// ReasonDeepDive marks content close to recent reading (distance
	// below 0.4).
	ReasonDeepDive Reason = "DEEP_DIVE"

	// ReasonSerendipity is the boundary case at distance exactly 0.4.
	ReasonSerendipity Reason = "SERENDIPITY"

	// ReasonRecent is applied to every card when the viewer has no
	// context.
	ReasonRecent Reason = "RECENT"
)

// Distance thresholds for the reason rules. The zone bounds are
// configurable; these classification cut points are not.
const (
	exploreThreshold  = 0.6
	deepDiveThreshold = 0.4
)

// reasonRule pairs a predicate with the reason it assigns. Rules are
// evaluated in order; the first match wins, so a blindspot tag always
// beats a pure-distance classification. New reasons slot in without
// touching existing rules.
type reasonRule struct {
	matches func(vector.Candidate) bool
	reason  Reason
}

var reasonRules = []reasonRule{
	{func(c vector.Candidate) bool { return c.Card.HasBlindspot() }, ReasonBlindspotBreaker},
	{func(c vector.Candidate) bool { return c.Distance > exploreThreshold }, ReasonExplore},
	{func(c vector.Candidate) bool { return c.Distance > deepDiveThreshold && c.Distance <= exploreThreshold }, ReasonPerspectiveShift},
	{func(c vector.Candidate) bool { return c.Distance < deepDiveThreshold }, ReasonDeepDive},
}

// ClassifyReason assigns the rationale label for one candidate.
// hasContext false labels everything RECENT regardless of the rules.
//
// Boundary convention: zone bounds are inclusive on both sides; the
// classification thresholds behave exactly as the rule predicates read
// (0.4 itself matches no distance rule and falls through to
// SERENDIPITY).
func ClassifyReason(cand vector.Candidate, hasContext bool) Reason {
	if !hasContext {
		return ReasonRecent
	}
	for _, rule := range reasonRules {
		if rule.matches(cand) {
			return rule.reason
		}
	}
	return ReasonSerendipity
}

// TaggedCandidate is a candidate with its rationale attached.
type TaggedCandidate struct {
	vector.Candidate
	Reason Reason
}

// TagReasons classifies every candidate, preserving order.
func TagReasons(candidates []vector.Candidate, hasContext bool) []TaggedCandidate {
	tagged := make([]TaggedCandidate, len(candidates))
	for i, cand := range candidates {
		tagged[i] = TaggedCandidate{Candidate: cand, Reason: ClassifyReason(cand, hasContext)}
	}
	return tagged
}
