package violation

import (
	"time"

	"imposter-stats/internal/match/modes"
)

// Escalation steps indexed by violation count - 1. Counts past the end use the last step.
var Steps = []time.Duration{
	30 * time.Minute,
	1 * time.Hour,
	2 * time.Hour,
	4 * time.Hour,
	8 * time.Hour,
	16 * time.Hour,
	24 * time.Hour,
}

// Outcome is the result of recording a violation against a player
type Outcome struct {
	Count          int           `json:"count"`
	Duration       time.Duration `json:"duration"`
	SuspendedUntil time.Time     `json:"suspended_until"`
}

// SuspensionDuration maps a scoped violation count to a suspension length.
// A count below one carries no suspension.
func SuspensionDuration(count int) time.Duration {
	if count < 1 {
		return 0
	}
	if count > len(Steps) {
		return Steps[len(Steps)-1]
	}
	return Steps[count-1]
}

// SuspendUntil returns the suspension end for a new violation. An existing
// suspension that already ends later is kept.
func SuspendUntil(now time.Time, count int, current *time.Time) time.Time {
	until := now.Add(SuspensionDuration(count))
	if current != nil && current.After(until) {
		return *current
	}
	return until
}

// Escalate combines the recomputed count with the player's current suspension.
func Escalate(now time.Time, count int, current *time.Time) Outcome {
	return Outcome{
		Count:          count,
		Duration:       SuspensionDuration(count),
		SuspendedUntil: SuspendUntil(now, count, current),
	}
}

// AbortDeltas returns the rating change for every participant of a match
// aborted by a violation. Only the offender of a ranked match is penalised.
func AbortDeltas(mode modes.Mode, offenderID string, participantIDs []string) map[string]int {
	penalty := modes.DefaultRules(mode).ViolationPenalty

	deltas := make(map[string]int, len(participantIDs))
	for _, id := range participantIDs {
		deltas[id] = 0
	}
	if penalty != 0 {
		deltas[offenderID] = penalty
	}
	return deltas
}

// AbortReason tags an aborted match with the violation type.
func AbortReason(violationType string) string {
	return "violation:" + violationType
}
