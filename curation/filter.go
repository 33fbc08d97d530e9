package curation

import (
	"fmt"
	"math"
	"sort"

	"github.com/bloomscroll/bloomfeed/vector"
)

// Default serendipity-zone bounds and quality floor.
//
// Distance below the lower bound means near-duplication of recent
// reading (echo chamber); above the upper bound the content is too
// dissimilar to land. The zone is the compromise between novelty and
// coherence.
const (
	DefaultMinDistance  = 0.3
	DefaultMaxDistance  = 0.8
	DefaultQualityFloor = 70.0
)

// Zone is the cosine-distance interval within which a candidate counts
// as novel-but-comprehensible. Both bounds are inclusive.
type Zone struct {
	Min float64
	Max float64
}

// DefaultZone returns the [0.3, 0.8] serendipity zone.
func DefaultZone() Zone {
	return Zone{Min: DefaultMinDistance, Max: DefaultMaxDistance}
}

// Validate checks 0 <= Min < Max <= 2.
func (z Zone) Validate() error {
	if z.Min < 0 || z.Max > 2 || z.Min >= z.Max {
		return fmt.Errorf("serendipity zone [%g, %g] must satisfy 0 <= min < max <= 2", z.Min, z.Max)
	}
	return nil
}

// Contains reports whether the distance falls inside the zone, bounds
// inclusive.
func (z Zone) Contains(distance float64) bool {
	return distance >= z.Min && distance <= z.Max
}

// Midpoint is the ideal distance: candidates closest to it rank first
// so the zone's extreme edges are not systematically favored.
func (z Zone) Midpoint() float64 {
	return (z.Min + z.Max) / 2
}

// SerendipityScore maps a distance to [0, 1]: 1 at the zone midpoint,
// falling linearly to 0 at the edges, 0 outside the zone.
func (z Zone) SerendipityScore(distance float64) float64 {
	if !z.Contains(distance) {
		return 0
	}
	maxDeviation := (z.Max - z.Min) / 2
	if maxDeviation == 0 {
		return 0
	}
	score := 1 - math.Abs(distance-z.Midpoint())/maxDeviation
	return math.Max(0, math.Min(1, score))
}

// SelectCandidates keeps candidates whose distance lies inside the zone
// and orders them by proximity to the zone midpoint. The store already
// filters by distance range; this pass re-checks the bounds and applies
// the secondary ranking.
func SelectCandidates(candidates []vector.Candidate, zone Zone) []vector.Candidate {
	selected := make([]vector.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if zone.Contains(cand.Distance) {
			selected = append(selected, cand)
		}
	}

	mid := zone.Midpoint()
	sort.SliceStable(selected, func(i, j int) bool {
		return math.Abs(selected[i].Distance-mid) < math.Abs(selected[j].Distance-mid)
	})

	return selected
}
