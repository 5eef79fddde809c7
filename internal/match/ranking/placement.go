package ranking

import (
	"golang.org/x/exp/slices"
)

// Entry is a participant's final point total for a match.
type Entry struct {
	ID    string
	Score int
}

// Placement is a participant's finishing position. Tied participants share
// the mean of the positions their group occupies, so a two-way tie for
// second and third yields 2.5 for both.
type Placement struct {
	ID        string
	Score     int
	Placement float64
	// From and To are the 1-based positions covered by the participant's tie group.
	From int
	To   int
}

// Tied reports whether the placement is shared with another participant.
func (p Placement) Tied() bool {
	return p.From != p.To
}

// ResolvePlacements orders entries by score descending and assigns each
// entry its placement. The result is in placement order; entries with equal
// scores keep their input order.
func ResolvePlacements(entries []Entry) []Placement {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	placements := make([]Placement, len(sorted))
	for start := 0; start < len(sorted); {
		end := start
		for end+1 < len(sorted) && sorted[end+1].Score == sorted[start].Score {
			end++
		}

		from, to := start+1, end+1
		mean := float64(from+to) / 2
		for i := start; i <= end; i++ {
			placements[i] = Placement{
				ID:        sorted[i].ID,
				Score:     sorted[i].Score,
				Placement: mean,
				From:      from,
				To:        to,
			}
		}
		start = end + 1
	}

	return placements
}
