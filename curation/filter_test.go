package curation

import (
	"math"
	"testing"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/vector"
)

func candidateAt(id string, distance float64) vector.Candidate {
	return vector.Candidate{
		Card:     card.Card{ID: id, SourceType: card.SourceOWID, Quality: 80},
		Distance: distance,
	}
}

func TestZoneValidate(t *testing.T) {
	tests := []struct {
		name    string
		zone    Zone
		wantErr bool
	}{
		{"default zone", DefaultZone(), false},
		{"full range", Zone{Min: 0, Max: 2}, false},
		{"min equals max", Zone{Min: 0.5, Max: 0.5}, true},
		{"inverted", Zone{Min: 0.8, Max: 0.3}, true},
		{"negative min", Zone{Min: -0.1, Max: 0.8}, true},
		{"max above two", Zone{Min: 0.3, Max: 2.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.zone.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestZoneContains(t *testing.T) {
	zone := DefaultZone()

	tests := []struct {
		name     string
		distance float64
		want     bool
	}{
		{"identical to context is echo chamber", 0, false},
		{"just below lower bound", 0.299, false},
		{"lower bound inclusive", 0.3, true},
		{"midpoint", 0.55, true},
		{"upper bound inclusive", 0.8, true},
		{"just above upper bound", 0.801, false},
		{"noise", 1.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := zone.Contains(tt.distance); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestSelectCandidatesFiltersAndRanks(t *testing.T) {
	zone := DefaultZone()

	candidates := []vector.Candidate{
		candidateAt("echo", 0.1),
		candidateAt("edge-low", 0.3),
		candidateAt("near-mid", 0.5),
		candidateAt("mid", 0.55),
		candidateAt("edge-high", 0.8),
		candidateAt("noise", 1.4),
	}

	got := SelectCandidates(candidates, zone)

	for _, cand := range got {
		if !zone.Contains(cand.Distance) {
			t.Errorf("candidate %q at distance %v escaped the zone", cand.Card.ID, cand.Distance)
		}
	}

	wantOrder := []string{"mid", "near-mid", "edge-low", "edge-high"}
	if len(got) != len(wantOrder) {
		t.Fatalf("SelectCandidates() kept %d candidates, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].Card.ID != id {
			t.Errorf("SelectCandidates()[%d] = %q, want %q (midpoint-proximity order)", i, got[i].Card.ID, id)
		}
	}
}

func TestSerendipityScore(t *testing.T) {
	zone := DefaultZone()

	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"midpoint scores 1", 0.55, 1},
		{"lower edge scores 0", 0.3, 0},
		{"upper edge scores 0", 0.8, 0},
		{"outside zone scores 0", 0.1, 0},
		{"halfway to edge", 0.675, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := zone.SerendipityScore(tt.distance)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SerendipityScore(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}
