package match

import (
	"context"

	"imposter-stats/internal/match/scoring"
	"imposter-stats/internal/player"
)

// Store defines the persistence operations settlement needs
type Store interface {
	// FindMatchByKey returns ErrMatchNotFound when no match has the key.
	FindMatchByKey(ctx context.Context, key string) (*MatchRecord, error)
	ListResults(ctx context.Context, matchID string) ([]*Result, error)

	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write side of a settlement. Everything runs in one transaction.
type Tx interface {
	// LockPlayers creates missing players from their seeds, then locks and
	// returns every player keyed by id. Stored ratings win over seeds.
	LockPlayers(ctx context.Context, seeds []player.Seed) (map[string]*player.Player, error)
	UpdatePlayer(ctx context.Context, p *player.Player) error

	// InsertMatch returns ErrDuplicateMatch when the idempotency key is taken.
	InsertMatch(ctx context.Context, m *MatchRecord) error
	InsertRounds(ctx context.Context, matchID string, rounds []scoring.Round) error
	InsertResults(ctx context.Context, results []*Result) error

	InsertViolation(ctx context.Context, v *Violation) error
	CountViolations(ctx context.Context, scope, playerID string) (int, error)
}

// Archiver stores the raw report once the match is committed
type Archiver interface {
	Archive(ctx context.Context, scope, matchID string, report []byte) error
}

// Notifier tells moderators about repeat offenders
type Notifier interface {
	NotifyViolation(ctx context.Context, alert Alert) error
}

// Recorder observes settlement outcomes
type Recorder interface {
	Settled(mode string, aborted bool, seconds float64)
	Rejected(code string)
	Duplicate()
	Failed()
}
