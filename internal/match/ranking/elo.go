package ranking

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

const (
	// RatingFloor is the lowest rating a player can be stored with.
	RatingFloor = 300
	// PlacementMatches is the number of ranked matches a player spends in placement.
	PlacementMatches = 6
	// PlacementMultiplier scales the delta of a player still in placement.
	PlacementMultiplier = 3.0
	// LobbySize is the number of participants in every match.
	LobbySize = 4
)

// BaseDeltas are the rating changes for 1st through 4th place before any adjustment.
var BaseDeltas = [LobbySize]float64{30, 10, -10, -30}

var (
	ErrLobbySize     = errors.New("elo requires exactly 4 placements")
	ErrMissingRating = errors.New("missing pre-match rating")
)

// InPlacement reports whether a player with the given ranked match count is
// still in their placement phase.
func InPlacement(rankedGames int) bool {
	return rankedGames < PlacementMatches
}

// BaseDelta returns the mean base delta of the positions from..to (1-based, inclusive).
func BaseDelta(from, to int) float64 {
	var sum float64
	for pos := from; pos <= to; pos++ {
		sum += BaseDeltas[pos-1]
	}
	return sum / float64(to-from+1)
}

// DampingFraction maps the absolute gap between a player's rating and the
// average of the rest of the lobby to the share of the delta that is scaled.
func DampingFraction(gap float64) float64 {
	gap = math.Abs(gap)
	switch {
	case gap >= 300:
		return 0.6
	case gap >= 200:
		return 0.4
	case gap >= 100:
		return 0.2
	default:
		return 0
	}
}

// Dampen scales a base delta by how far the player sits from the lobby.
// Players above the lobby gain less and lose more; players below gain more
// and lose less.
func Dampen(base, diff float64) float64 {
	if base == 0 || diff == 0 {
		return base
	}
	frac := DampingFraction(diff)
	if (diff > 0) == (base > 0) {
		return base * (1 - frac)
	}
	return base * (1 + frac)
}

// ComputeDeltas returns the integer rating change for every placement.
//
// Deltas are dampened by lobby strength first and multiplied for placement
// players second. When nobody in the lobby is in placement the deltas are
// re-centred and rounded so they sum to exactly zero; otherwise each delta is
// rounded on its own.
func ComputeDeltas(placements []Placement, ratings map[string]int, inPlacement map[string]bool) (map[string]int, error) {
	if len(placements) != LobbySize {
		return nil, fmt.Errorf("%w: got %d", ErrLobbySize, len(placements))
	}

	var total float64
	for _, p := range placements {
		rating, ok := ratings[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRating, p.ID)
		}
		total += float64(rating)
	}

	raw := make([]float64, len(placements))
	anyPlacement := false
	for i, p := range placements {
		self := float64(ratings[p.ID])
		avgOthers := (total - self) / float64(len(placements)-1)

		delta := Dampen(BaseDelta(p.From, p.To), self-avgOthers)
		if inPlacement[p.ID] {
			delta *= PlacementMultiplier
			anyPlacement = true
		}
		raw[i] = delta
	}

	var rounded []int
	if anyPlacement {
		rounded = make([]int, len(raw))
		for i, d := range raw {
			rounded[i] = int(math.Round(d))
		}
	} else {
		rounded = ZeroSum(raw)
	}

	deltas := make(map[string]int, len(placements))
	for i, p := range placements {
		deltas[p.ID] = rounded[i]
	}
	return deltas, nil
}

// ZeroSum re-centres values on their mean and rounds them so the integers
// sum to exactly zero. Any rounding residual is handed out one unit at a time
// to the values whose rounding moved them furthest in the offending direction.
func ZeroSum(values []float64) []int {
	n := len(values)
	if n == 0 {
		return nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	centred := make([]float64, n)
	rounded := make([]int, n)
	residual := 0
	for i, v := range values {
		centred[i] = v - mean
		rounded[i] = int(math.Round(centred[i]))
		residual += rounded[i]
	}
	if residual == 0 {
		return rounded
	}

	// over > 0 means rounding pushed the value up, so it is first in line to come down.
	over := func(i int) float64 {
		if residual > 0 {
			return float64(rounded[i]) - centred[i]
		}
		return centred[i] - float64(rounded[i])
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch oa, ob := over(a), over(b); {
		case oa > ob:
			return -1
		case oa < ob:
			return 1
		default:
			return 0
		}
	})

	for k := 0; residual != 0; k++ {
		i := order[k%n]
		if residual > 0 {
			rounded[i]--
			residual--
		} else {
			rounded[i]++
			residual++
		}
	}
	return rounded
}

// CalculateNewRating applies a delta to a stored rating, never going below the floor.
func CalculateNewRating(currentRating, delta int) int {
	newRating := currentRating + delta
	if newRating < RatingFloor {
		return RatingFloor
	}
	return newRating
}
