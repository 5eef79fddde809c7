package modes

import (
	"errors"
	"fmt"
	"strings"
)

// Mode represents the kind of match being reported
type Mode string

const (
	ModeRanked Mode = "ranked" // Elo applies, qualification required
	ModeCasual Mode = "casual" // counters only
)

// MinCasualGamesForRanked is how many casual matches a player needs before entering ranked.
const MinCasualGamesForRanked = 5

var ErrUnknownMode = errors.New("unknown mode")

// Rules represents how a mode is settled
type Rules struct {
	Mode           Mode `json:"mode"`
	PlayerCount    int  `json:"player_count"`
	AffectsRating  bool `json:"affects_rating"`
	MinCasualGames int  `json:"min_casual_games"`
	// ViolationPenalty is applied to the offender when a violation aborts the match.
	ViolationPenalty int `json:"violation_penalty"`
}

// Parse converts a reported mode string, ignoring case and surrounding space.
func Parse(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case ModeRanked, ModeCasual:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// DefaultRules returns the settlement rules for each mode
func DefaultRules(mode Mode) Rules {
	base := Rules{
		Mode:        mode,
		PlayerCount: 4,
	}

	switch mode {
	case ModeRanked:
		base.AffectsRating = true
		base.MinCasualGames = MinCasualGamesForRanked
		base.ViolationPenalty = -30

	case ModeCasual:
		base.AffectsRating = false
	}

	return base
}

// IsCompetitive returns whether a mode affects rating
func IsCompetitive(mode Mode) bool {
	return DefaultRules(mode).AffectsRating
}

// Qualified reports whether a player with the given casual history may play the mode.
func Qualified(mode Mode, casualGames int) bool {
	return casualGames >= DefaultRules(mode).MinCasualGames
}
