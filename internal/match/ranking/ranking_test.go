package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lobby(scores ...int) []Entry {
	ids := []string{"p1", "p2", "p3", "p4"}
	entries := make([]Entry, len(scores))
	for i, s := range scores {
		entries[i] = Entry{ID: ids[i], Score: s}
	}
	return entries
}

func placementValues(placements []Placement) []float64 {
	values := make([]float64, len(placements))
	for i, p := range placements {
		values[i] = p.Placement
	}
	return values
}

func TestResolvePlacements(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		expected []float64
	}{
		{"Tie for first", lobby(5, 5, 3, 2), []float64{1.5, 1.5, 3, 4}},
		{"Tie for second", lobby(5, 3, 3, 2), []float64{1, 2.5, 2.5, 4}},
		{"All tied", lobby(5, 5, 5, 5), []float64{2.5, 2.5, 2.5, 2.5}},
		{"No ties", lobby(1, 4, 2, 3), []float64{1, 2, 3, 4}},
		{"Single entry", lobby(7), []float64{1}},
		{"Empty", nil, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePlacements(tt.entries)
			assert.Equal(t, tt.expected, placementValues(got))
		})
	}
}

func TestResolvePlacementsOrdering(t *testing.T) {
	got := ResolvePlacements(lobby(1, 4, 4, 3))

	require.Len(t, got, 4)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
	assert.Equal(t, "p4", got[2].ID)
	assert.Equal(t, "p1", got[3].ID)
	assert.True(t, got[0].Tied())
	assert.Equal(t, 1, got[0].From)
	assert.Equal(t, 2, got[0].To)
	assert.False(t, got[3].Tied())
}

func TestDampen(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		diff     float64
		expected float64
	}{
		{"Equal lobby", 30, 0, 30},
		{"Zero base", 0, 350, 0},
		{"Small gap", 30, 99, 30},
		{"Above lobby gains less", 30, 150, 24},
		{"Above lobby loses more", -30, 250, -42},
		{"Below lobby gains more", 30, -300, 48},
		{"Below lobby loses less", -10, -120, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dampen(tt.base, tt.diff), 1e-9)
		})
	}
}

func TestComputeDeltas(t *testing.T) {
	even := map[string]int{"p1": 1000, "p2": 1000, "p3": 1000, "p4": 1000}

	tests := []struct {
		name        string
		scores      []int
		ratings     map[string]int
		inPlacement map[string]bool
		expected    map[string]int
	}{
		{
			name:     "Tie for second in even lobby",
			scores:   []int{5, 3, 3, 2},
			ratings:  even,
			expected: map[string]int{"p1": 30, "p2": 0, "p3": 0, "p4": -30},
		},
		{
			name:        "Winner in placement skips zero-sum",
			scores:      []int{5, 3, 3, 2},
			ratings:     even,
			inPlacement: map[string]bool{"p1": true},
			expected:    map[string]int{"p1": 90, "p2": 0, "p3": 0, "p4": -30},
		},
		{
			name:     "No ties in even lobby",
			scores:   []int{8, 6, 4, 2},
			ratings:  even,
			expected: map[string]int{"p1": 30, "p2": 10, "p3": -10, "p4": -30},
		},
		{
			name:     "All tied",
			scores:   []int{3, 3, 3, 3},
			ratings:  even,
			expected: map[string]int{"p1": 0, "p2": 0, "p3": 0, "p4": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDeltas(ResolvePlacements(lobby(tt.scores...)), tt.ratings, tt.inPlacement)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestComputeDeltasZeroSum(t *testing.T) {
	lobbies := []map[string]int{
		{"p1": 1000, "p2": 1000, "p3": 1000, "p4": 1000},
		{"p1": 1450, "p2": 980, "p3": 1010, "p4": 700},
		{"p1": 300, "p2": 1333, "p3": 1127, "p4": 911},
		{"p1": 1201, "p2": 1199, "p3": 845, "p4": 1602},
	}
	scoreSets := [][]int{
		{5, 3, 3, 2},
		{5, 5, 3, 2},
		{5, 5, 5, 5},
		{9, 1, 4, 4},
		{0, 7, 2, 3},
	}

	for _, ratings := range lobbies {
		for _, scores := range scoreSets {
			deltas, err := ComputeDeltas(ResolvePlacements(lobby(scores...)), ratings, nil)
			require.NoError(t, err)

			sum := 0
			for _, d := range deltas {
				sum += d
			}
			assert.Zero(t, sum, "ratings %v scores %v deltas %v", ratings, scores, deltas)
		}
	}
}

func TestComputeDeltasPlacementAmplification(t *testing.T) {
	ratings := map[string]int{"p1": 1300, "p2": 1000, "p3": 1000, "p4": 1000}

	t.Run("Untied winner above the lobby", func(t *testing.T) {
		placements := ResolvePlacements(lobby(8, 6, 4, 2))
		got, err := ComputeDeltas(placements, ratings, map[string]bool{"p1": true})
		require.NoError(t, err)

		// 30 dampened by 0.6 for a 300 point gap, then tripled.
		assert.Equal(t, 36, got["p1"])
	})

	t.Run("Tied loser below the lobby", func(t *testing.T) {
		placements := ResolvePlacements(lobby(8, 6, 2, 2))
		got, err := ComputeDeltas(placements, ratings, map[string]bool{"p4": true})
		require.NoError(t, err)

		// p4 sits 100 below the lobby: -20 dampened by 0.2 is -16, tripled is -48.
		assert.Equal(t, -48, got["p4"])
	})
}

func TestComputeDeltasErrors(t *testing.T) {
	t.Run("Wrong lobby size", func(t *testing.T) {
		_, err := ComputeDeltas(ResolvePlacements(lobby(3, 2, 1)), map[string]int{}, nil)
		assert.ErrorIs(t, err, ErrLobbySize)
	})

	t.Run("Missing rating", func(t *testing.T) {
		ratings := map[string]int{"p1": 1000, "p2": 1000, "p3": 1000}
		_, err := ComputeDeltas(ResolvePlacements(lobby(4, 3, 2, 1)), ratings, nil)
		assert.ErrorIs(t, err, ErrMissingRating)
	})
}

func TestZeroSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []int
	}{
		{"Already balanced", []float64{30, 0, 0, -30}, []int{30, 0, 0, -30}},
		{"Re-centred", []float64{32, 2, 2, -28}, []int{30, 0, 0, -30}},
		{"Residual removed from largest round-up", []float64{0.5, 0.5, -0.25, -0.75}, []int{0, 1, 0, -1}},
		{"Empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZeroSum(tt.values)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCalculateNewRating(t *testing.T) {
	tests := []struct {
		name          string
		currentRating int
		delta         int
		expected      int
	}{
		{"Normal increase", 1000, 30, 1030},
		{"Normal decrease", 1000, -30, 970},
		{"No upper cap", 2990, 90, 3080},
		{"Hit floor", 310, -30, 300},
		{"At floor stays at floor", 300, -90, 300},
		{"At floor small loss", 300, -1, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateNewRating(tt.currentRating, tt.delta))
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		name        string
		rating      int
		rankedGames int
		expected    string
	}{
		{"In placement", 1500, 5, "Placement"},
		{"Floor", 300, 6, "Bronze"},
		{"Top bronze", 799, 10, "Bronze"},
		{"Low silver", 800, 10, "Silver"},
		{"Default rating", 1000, 6, "Gold"},
		{"Mid platinum", 1300, 40, "Platinum"},
		{"Diamond", 1400, 40, "Diamond"},
		{"High diamond", 2600, 40, "Diamond"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierFor(tt.rating, tt.rankedGames).Name)
		})
	}
}
