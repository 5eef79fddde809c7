package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imposter-stats/internal/match/ranking"
)

var players = []string{"p1", "p2", "p3", "p4"}

func TestScoreRounds(t *testing.T) {
	tests := []struct {
		name     string
		rounds   []Round
		expected map[string]int
	}{
		{
			name:     "No rounds",
			rounds:   nil,
			expected: map[string]int{"p1": 0, "p2": 0, "p3": 0, "p4": 0},
		},
		{
			name: "Imposter win",
			rounds: []Round{
				{RoundNo: 1, ImposterID: "p2", Winner: SideImposter, Method: "survived"},
			},
			expected: map[string]int{"p1": 0, "p2": 2, "p3": 0, "p4": 0},
		},
		{
			name: "Crew win",
			rounds: []Round{
				{RoundNo: 1, ImposterID: "p2", Winner: SideCrew, Method: "vote"},
			},
			expected: map[string]int{"p1": 1, "p2": 0, "p3": 1, "p4": 1},
		},
		{
			name: "Mixed rounds",
			rounds: []Round{
				{RoundNo: 1, ImposterID: "p1", Winner: SideImposter},
				{RoundNo: 2, ImposterID: "p2", Winner: SideCrew},
				{RoundNo: 3, ImposterID: "p3", Winner: SideCrew},
				{RoundNo: 4, ImposterID: "p1", Winner: SideImposter},
			},
			expected: map[string]int{"p1": 6, "p2": 1, "p3": 1, "p4": 2},
		},
		{
			name: "Aborted rounds score nothing",
			rounds: []Round{
				{RoundNo: 1, ImposterID: "p1", Winner: SideImposter, Aborted: true},
				{RoundNo: 2, ImposterID: "p2", Winner: SideCrew, Aborted: true},
				{RoundNo: 3, ImposterID: "ghost", Winner: "nobody", Aborted: true},
			},
			expected: map[string]int{"p1": 0, "p2": 0, "p3": 0, "p4": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScoreRounds(tt.rounds, players)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScoreRoundsIsPure(t *testing.T) {
	rounds := []Round{
		{RoundNo: 1, ImposterID: "p4", Winner: SideImposter},
		{RoundNo: 2, ImposterID: "p3", Winner: SideCrew},
		{RoundNo: 3, ImposterID: "p1", Winner: SideImposter, Aborted: true},
	}

	first, err := ScoreRounds(rounds, players)
	require.NoError(t, err)
	second, err := ScoreRounds(rounds, players)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFromRoundsTallies(t *testing.T) {
	rounds := []Round{
		{RoundNo: 1, ImposterID: "p1", Winner: SideImposter},
		{RoundNo: 2, ImposterID: "p1", Winner: SideCrew},
		{RoundNo: 3, ImposterID: "p2", Winner: SideImposter, Aborted: true},
	}

	m, err := FromRounds(rounds, players)
	require.NoError(t, err)

	assert.Equal(t, 2, m.ImposterRounds["p1"])
	assert.Equal(t, 1, m.ImposterWins["p1"])
	assert.Zero(t, m.ImposterRounds["p2"])
	assert.Len(t, m.Rounds, 3)
}

func TestFromRoundsErrors(t *testing.T) {
	tests := []struct {
		name    string
		rounds  []Round
		wantErr error
	}{
		{
			name:    "Imposter not in lobby",
			rounds:  []Round{{RoundNo: 1, ImposterID: "p9", Winner: SideCrew}},
			wantErr: ErrUnknownParticipant,
		},
		{
			name:    "Unknown winner",
			rounds:  []Round{{RoundNo: 1, ImposterID: "p1", Winner: "draw"}},
			wantErr: ErrUnknownSide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRounds(tt.rounds, players)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromTotals(t *testing.T) {
	tests := []struct {
		name    string
		totals  map[string]int
		wantErr error
	}{
		{
			name:   "Valid totals",
			totals: map[string]int{"p1": 5, "p2": 3, "p3": 3, "p4": 2},
		},
		{
			name:    "Missing player",
			totals:  map[string]int{"p1": 5, "p2": 3, "p3": 3},
			wantErr: ErrMissingTotal,
		},
		{
			name:    "Extra player",
			totals:  map[string]int{"p1": 5, "p2": 3, "p3": 3, "p4": 2, "p5": 1},
			wantErr: ErrUnknownParticipant,
		},
		{
			name:    "Negative total",
			totals:  map[string]int{"p1": 5, "p2": -3, "p3": 3, "p4": 2},
			wantErr: ErrNegativeTotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromTotals(tt.totals, players)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.totals, m.Points)
			assert.Empty(t, m.ImposterRounds)
		})
	}
}

func TestEntriesConvergeForBothShapes(t *testing.T) {
	rounds := []Round{
		{RoundNo: 1, ImposterID: "p1", Winner: SideImposter},
		{RoundNo: 2, ImposterID: "p4", Winner: SideCrew},
		{RoundNo: 3, ImposterID: "p1", Winner: SideImposter},
	}
	fromRounds, err := FromRounds(rounds, players)
	require.NoError(t, err)

	fromTotals, err := FromTotals(map[string]int{"p1": 5, "p2": 1, "p3": 1, "p4": 0}, players)
	require.NoError(t, err)

	assert.Equal(t, fromTotals.Entries(), fromRounds.Entries())
	assert.Equal(t, []ranking.Entry{
		{ID: "p1", Score: 5},
		{ID: "p2", Score: 1},
		{ID: "p3", Score: 1},
		{ID: "p4", Score: 0},
	}, fromRounds.Entries())
}
