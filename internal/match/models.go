package match

import (
	"time"

	"imposter-stats/internal/match/modes"
	"imposter-stats/internal/match/scoring"
)

// Report is a completed or aborted match as sent by a game server.
// Exactly one of Rounds and Points is set.
type Report struct {
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	Scope          string           `json:"scope"`
	Mode           string           `json:"mode"`
	Players        []ReportPlayer   `json:"players"`
	Rounds         []scoring.Round  `json:"rounds,omitempty"`
	Points         map[string]int   `json:"points,omitempty"`
	Violation      *ViolationReport `json:"violation,omitempty"`
}

// ReportPlayer is a participant as known to the reporter
type ReportPlayer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Rating      *int   `json:"rating,omitempty"`
}

// ViolationReport names the participant whose rule violation aborted the match
type ViolationReport struct {
	PlayerID string `json:"player_id"`
	Type     string `json:"type"`
}

// MatchRecord is the persisted match row
type MatchRecord struct {
	ID             string     `json:"id" db:"id"`
	IdempotencyKey string     `json:"idempotency_key" db:"idempotency_key"`
	Scope          string     `json:"scope" db:"scope"`
	Mode           modes.Mode `json:"mode" db:"mode"`
	Aborted        bool       `json:"aborted" db:"aborted"`
	AbortReason    string     `json:"abort_reason,omitempty" db:"abort_reason"`
	PlacementPhase bool       `json:"placement_phase" db:"placement_phase"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Result is one participant's outcome of a settled match. Placement is nil
// for aborted matches.
type Result struct {
	MatchID      string   `json:"-" db:"match_id"`
	PlayerID     string   `json:"player_id" db:"player_id"`
	Points       int      `json:"points" db:"points"`
	Placement    *float64 `json:"placement" db:"placement"`
	EloDelta     int      `json:"elo_delta" db:"elo_delta"`
	RatingBefore int      `json:"rating_before" db:"rating_before"`
	RatingAfter  int      `json:"rating_after" db:"rating_after"`
}

// Violation is an append-only record of a rule violation
type Violation struct {
	ID        string    `json:"id" db:"id"`
	Scope     string    `json:"scope" db:"scope"`
	PlayerID  string    `json:"player_id" db:"player_id"`
	Type      string    `json:"type" db:"type"`
	MatchID   string    `json:"match_id" db:"match_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ViolationOutcome is the escalation applied to the offender
type ViolationOutcome struct {
	PlayerID          string    `json:"player_id"`
	Type              string    `json:"type"`
	Count             int       `json:"count"`
	SuspensionMinutes int       `json:"suspension_minutes"`
	SuspendedUntil    time.Time `json:"suspended_until"`
}

// Settlement is the outcome returned for a report
type Settlement struct {
	MatchID        string            `json:"match_id"`
	Scope          string            `json:"scope"`
	Mode           modes.Mode        `json:"mode"`
	Duplicate      bool              `json:"duplicate"`
	Aborted        bool              `json:"aborted"`
	AbortReason    string            `json:"abort_reason,omitempty"`
	PlacementPhase bool              `json:"placement_phase"`
	Results        []*Result         `json:"results"`
	Violation      *ViolationOutcome `json:"violation,omitempty"`
}

// EventType represents different types of settlement events
type EventType string

const EventTypeMatchSettled EventType = "match_settled"

// Event is published to live subscribers after a match is committed
type Event struct {
	Type      EventType   `json:"type"`
	MatchID   string      `json:"match_id"`
	Scope     string      `json:"scope"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   *Settlement `json:"payload"`
}

// Alert is sent to moderators when a violation escalates past the threshold
type Alert struct {
	Scope          string
	PlayerID       string
	DisplayName    string
	Type           string
	MatchID        string
	Count          int
	SuspendedUntil time.Time
}
