package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRules(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want Rules
	}{
		{
			name: "Ranked defaults",
			mode: ModeRanked,
			want: Rules{
				Mode:             ModeRanked,
				PlayerCount:      4,
				AffectsRating:    true,
				MinCasualGames:   5,
				ViolationPenalty: -30,
			},
		},
		{
			name: "Casual defaults",
			mode: ModeCasual,
			want: Rules{
				Mode:        ModeCasual,
				PlayerCount: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultRules(tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr bool
	}{
		{"Ranked", "ranked", ModeRanked, false},
		{"Casual mixed case", " Casual ", ModeCasual, false},
		{"Unknown", "tournament", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQualified(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		casualGames int
		want        bool
	}{
		{"Ranked new player", ModeRanked, 0, false},
		{"Ranked one short", ModeRanked, 4, false},
		{"Ranked qualified", ModeRanked, 5, true},
		{"Casual new player", ModeCasual, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualified(tt.mode, tt.casualGames))
		})
	}
}

func TestIsCompetitive(t *testing.T) {
	assert.True(t, IsCompetitive(ModeRanked))
	assert.False(t, IsCompetitive(ModeCasual))
}
