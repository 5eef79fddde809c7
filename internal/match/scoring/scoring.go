package scoring

import (
	"errors"
	"fmt"

	"imposter-stats/internal/match/ranking"
)

// Side is the team that won a round
type Side string

const (
	SideImposter Side = "imposter"
	SideCrew     Side = "crew"
)

// Points awarded per non-aborted round
const (
	ImposterWinPoints = 2
	CrewWinPoints     = 1
)

var (
	ErrUnknownParticipant = errors.New("round references unknown participant")
	ErrUnknownSide        = errors.New("unknown winning side")
	ErrMissingTotal       = errors.New("missing point total")
	ErrNegativeTotal      = errors.New("point total must not be negative")
)

// Round is one deduction round within a match
type Round struct {
	RoundNo    int    `json:"round_no"`
	ImposterID string `json:"imposter_id"`
	Winner     Side   `json:"winner"`
	Method     string `json:"method,omitempty"`
	Aborted    bool   `json:"aborted"`
}

// ScoredMatch is the single shape both report variants are reduced to
// before placements are resolved.
type ScoredMatch struct {
	PlayerIDs []string
	Points    map[string]int
	// Imposter tallies are only known for round-based reports.
	ImposterRounds map[string]int
	ImposterWins   map[string]int
	Rounds         []Round
}

// ScoreRounds converts round outcomes into point totals for every participant.
// Aborted rounds are skipped without looking at their roles.
func ScoreRounds(rounds []Round, participantIDs []string) (map[string]int, error) {
	m, err := FromRounds(rounds, participantIDs)
	if err != nil {
		return nil, err
	}
	return m.Points, nil
}

// FromRounds scores a round-based report.
func FromRounds(rounds []Round, participantIDs []string) (*ScoredMatch, error) {
	m := newScoredMatch(participantIDs)
	m.Rounds = rounds

	for _, round := range rounds {
		if round.Aborted {
			continue
		}
		if _, ok := m.Points[round.ImposterID]; !ok {
			return nil, fmt.Errorf("%w: round %d imposter %q", ErrUnknownParticipant, round.RoundNo, round.ImposterID)
		}

		m.ImposterRounds[round.ImposterID]++
		switch round.Winner {
		case SideImposter:
			m.Points[round.ImposterID] += ImposterWinPoints
			m.ImposterWins[round.ImposterID]++
		case SideCrew:
			for _, id := range participantIDs {
				if id != round.ImposterID {
					m.Points[id] += CrewWinPoints
				}
			}
		default:
			return nil, fmt.Errorf("%w: round %d winner %q", ErrUnknownSide, round.RoundNo, round.Winner)
		}
	}

	return m, nil
}

// FromTotals wraps precomputed point totals. Every participant needs a total
// and no other ids may appear.
func FromTotals(totals map[string]int, participantIDs []string) (*ScoredMatch, error) {
	m := newScoredMatch(participantIDs)

	for _, id := range participantIDs {
		points, ok := totals[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTotal, id)
		}
		if points < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativeTotal, id)
		}
		m.Points[id] = points
	}
	for id := range totals {
		if _, ok := m.Points[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
		}
	}

	return m, nil
}

// Entries returns the point totals in participant order, ready for the tie resolver.
func (m *ScoredMatch) Entries() []ranking.Entry {
	entries := make([]ranking.Entry, len(m.PlayerIDs))
	for i, id := range m.PlayerIDs {
		entries[i] = ranking.Entry{ID: id, Score: m.Points[id]}
	}
	return entries
}

func newScoredMatch(participantIDs []string) *ScoredMatch {
	m := &ScoredMatch{
		PlayerIDs:      participantIDs,
		Points:         make(map[string]int, len(participantIDs)),
		ImposterRounds: make(map[string]int, len(participantIDs)),
		ImposterWins:   make(map[string]int, len(participantIDs)),
	}
	for _, id := range participantIDs {
		m.Points[id] = 0
	}
	return m
}
