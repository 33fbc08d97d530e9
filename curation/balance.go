package curation

import "github.com/bloomscroll/bloomfeed/card"

// Interleave reorders candidates round-robin by source category so no
// single source dominates a run: one item from each non-empty group per
// pass, groups dropping out as they empty, remaining groups filling the
// tail. Pure reorder; nothing is added or removed.
//
// Groups follow the explicit priority order; sources absent from it are
// appended in first-seen order rather than dropped.
func Interleave(candidates []TaggedCandidate, priority []card.SourceType) []TaggedCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	groups := make(map[card.SourceType][]TaggedCandidate)
	order := make([]card.SourceType, 0, len(priority))
	seen := make(map[card.SourceType]bool)

	for _, src := range priority {
		if !seen[src] {
			order = append(order, src)
			seen[src] = true
		}
	}
	for _, cand := range candidates {
		src := cand.Card.SourceType
		if !seen[src] {
			order = append(order, src)
			seen[src] = true
		}
		groups[src] = append(groups[src], cand)
	}

	result := make([]TaggedCandidate, 0, len(candidates))
	for len(result) < len(candidates) {
		for _, src := range order {
			if len(groups[src]) == 0 {
				continue
			}
			result = append(result, groups[src][0])
			groups[src] = groups[src][1:]
		}
	}

	return result
}
