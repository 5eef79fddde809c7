package match

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"imposter-stats/internal/match/modes"
	"imposter-stats/internal/match/ranking"
	"imposter-stats/internal/match/scoring"
	"imposter-stats/internal/player"
)

// Normalize trims identifiers and puts display names into NFC so the same
// name typed on different clients is stored once.
func (r *Report) Normalize() {
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	r.Scope = strings.TrimSpace(r.Scope)
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	for i := range r.Players {
		r.Players[i].ID = strings.TrimSpace(r.Players[i].ID)
		r.Players[i].DisplayName = norm.NFC.String(strings.TrimSpace(r.Players[i].DisplayName))
	}
	numberRounds(r.Rounds)
	if r.Violation != nil {
		r.Violation.PlayerID = strings.TrimSpace(r.Violation.PlayerID)
		r.Violation.Type = strings.TrimSpace(r.Violation.Type)
	}
}

// Validate checks the report shape. It never looks at stored player state.
func (r *Report) Validate() error {
	if len(r.Players) != ranking.LobbySize {
		return fmt.Errorf("%w: got %d", ErrExpectedFourPlayers, len(r.Players))
	}
	if _, err := modes.Parse(r.Mode); err != nil {
		return err
	}
	if r.Scope == "" {
		return fmt.Errorf("%w: scope is required", ErrMalformedReport)
	}

	seen := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: player id is required", ErrMalformedReport)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate player %q", ErrMalformedReport, p.ID)
		}
		seen[p.ID] = true
	}

	hasRounds, hasPoints := r.Rounds != nil, r.Points != nil
	if hasRounds == hasPoints {
		return fmt.Errorf("%w: exactly one of rounds or points is required", ErrMalformedReport)
	}

	rounds := make(map[int]bool, len(r.Rounds))
	for i, round := range r.Rounds {
		if round.RoundNo <= 0 {
			return fmt.Errorf("%w: round %d has no round_no", ErrMalformedReport, i+1)
		}
		if rounds[round.RoundNo] {
			return fmt.Errorf("%w: duplicate round_no %d", ErrMalformedReport, round.RoundNo)
		}
		rounds[round.RoundNo] = true
	}

	if v := r.Violation; v != nil {
		if !seen[v.PlayerID] {
			return fmt.Errorf("%w: violation names unknown player %q", ErrMalformedReport, v.PlayerID)
		}
		if v.Type == "" {
			return fmt.Errorf("%w: violation type is required", ErrMalformedReport)
		}
	}

	return nil
}

// numberRounds numbers unnumbered rounds 1..N in report order. Reports that
// number only some rounds are left for Validate to reject.
func numberRounds(rounds []scoring.Round) {
	for _, round := range rounds {
		if round.RoundNo != 0 {
			return
		}
	}
	for i := range rounds {
		rounds[i].RoundNo = i + 1
	}
}

// PlayerIDs returns the participant ids in report order
func (r *Report) PlayerIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Score reduces either report shape to a ScoredMatch.
func (r *Report) Score() (*scoring.ScoredMatch, error) {
	var (
		scored *scoring.ScoredMatch
		err    error
	)
	if r.Rounds != nil {
		scored, err = scoring.FromRounds(r.Rounds, r.PlayerIDs())
	} else {
		scored, err = scoring.FromTotals(r.Points, r.PlayerIDs())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}
	return scored, nil
}

// Seeds describes the participants for first-time creation. A supplied
// rating below the floor is raised to it.
func (r *Report) Seeds(defaultRating int) []player.Seed {
	seeds := make([]player.Seed, len(r.Players))
	for i, p := range r.Players {
		rating := defaultRating
		if p.Rating != nil {
			rating = ranking.CalculateNewRating(*p.Rating, 0)
		}
		seeds[i] = player.Seed{ID: p.ID, DisplayName: p.DisplayName, Rating: rating}
	}
	return seeds
}

// Fingerprint returns a deterministic key for a report without one: the
// BLAKE2b-256 digest of its JSON encoding with the key field cleared.
func Fingerprint(r *Report) (string, error) {
	clone := *r
	clone.IdempotencyKey = ""

	data, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
