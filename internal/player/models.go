package player

import (
	"time"

	"imposter-stats/internal/match/ranking"
)

// Player represents a participant's persistent record
type Player struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`

	// Rating
	Rating      int `json:"rating" db:"rating"`
	RankedGames int `json:"ranked_games" db:"ranked_games"`
	CasualGames int `json:"casual_games" db:"casual_games"`

	// Game statistics
	Wins           int `json:"wins" db:"wins"`
	TotalPoints    int `json:"total_points" db:"total_points"`
	ImposterRounds int `json:"imposter_rounds" db:"imposter_rounds"`
	ImposterWins   int `json:"imposter_wins" db:"imposter_wins"`

	// Moderation. ViolationCount is recomputed from the violation log on every
	// write and holds the count for the scope of the latest violation.
	ViolationCount int        `json:"violation_count" db:"violation_count"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty" db:"suspended_until"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Seed describes a participant as first seen in a match report.
type Seed struct {
	ID          string
	DisplayName string
	Rating      int
}

// InPlacement reports whether the player is still in their placement matches
func (p *Player) InPlacement() bool {
	return ranking.InPlacement(p.RankedGames)
}

// Suspended reports whether a suspension is active at now
func (p *Player) Suspended(now time.Time) bool {
	return p.SuspendedUntil != nil && p.SuspendedUntil.After(now)
}

// Tier returns the tier the player is displayed with
func (p *Player) Tier() ranking.Tier {
	return ranking.TierFor(p.Rating, p.RankedGames)
}

// GamesPlayed is the total of ranked and casual matches
func (p *Player) GamesPlayed() int {
	return p.RankedGames + p.CasualGames
}

// WinRate returns wins over games played, or 0 for a new player
func (p *Player) WinRate() float64 {
	if p.GamesPlayed() == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed())
}

// ImposterWinRate returns imposter wins over imposter rounds
func (p *Player) ImposterWinRate() float64 {
	if p.ImposterRounds == 0 {
		return 0
	}
	return float64(p.ImposterWins) / float64(p.ImposterRounds)
}

// Profile is the public view of a player
type Profile struct {
	*Player
	Tier            ranking.Tier `json:"tier"`
	InPlacement     bool         `json:"in_placement"`
	GamesPlayed     int          `json:"games_played"`
	WinRate         float64      `json:"win_rate"`
	ImposterWinRate float64      `json:"imposter_win_rate"`
}

// NewProfile builds the public view of p
func NewProfile(p *Player) *Profile {
	return &Profile{
		Player:          p,
		Tier:            p.Tier(),
		InPlacement:     p.InPlacement(),
		GamesPlayed:     p.GamesPlayed(),
		WinRate:         p.WinRate(),
		ImposterWinRate: p.ImposterWinRate(),
	}
}

// RecentResult is one of a player's settled matches, with the placement
// recorded when the match was settled
type RecentResult struct {
	MatchID     string    `json:"match_id" db:"match_id"`
	Scope       string    `json:"scope" db:"scope"`
	Mode        string    `json:"mode" db:"mode"`
	Aborted     bool      `json:"aborted" db:"aborted"`
	AbortReason string    `json:"abort_reason,omitempty" db:"abort_reason"`
	Points      int       `json:"points" db:"points"`
	Placement   *float64  `json:"placement" db:"placement"`
	EloDelta    int       `json:"elo_delta" db:"elo_delta"`
	RatingAfter int       `json:"rating_after" db:"rating_after"`
	PlayedAt    time.Time `json:"played_at" db:"created_at"`
}

// LeaderboardEntry is a player's row on the leaderboard. Players with equal
// ratings share the mean of the positions they occupy.
type LeaderboardEntry struct {
	Position float64  `json:"position"`
	Profile  *Profile `json:"player"`
}
