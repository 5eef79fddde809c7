package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/exp/slices"

	"imposter-stats/internal/match"
	"imposter-stats/internal/match/scoring"
	"imposter-stats/internal/player"
)

const uniqueViolation = "23505"

const playerColumns = `id, display_name, rating, ranked_games, casual_games, wins, total_points,
	imposter_rounds, imposter_wins, violation_count, suspended_until, created_at, updated_at`

// Store is the Postgres implementation of match.Store and player.Store
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatchByKey(ctx context.Context, key string) (*match.MatchRecord, error) {
	query := `
		SELECT id, idempotency_key, scope, mode, aborted, abort_reason, placement_phase, created_at
		FROM matches
		WHERE idempotency_key = $1`

	var rec match.MatchRecord
	if err := s.db.GetContext(ctx, &rec, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, match.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListResults(ctx context.Context, matchID string) ([]*match.Result, error) {
	query := `
		SELECT match_id, player_id, points, placement, elo_delta, rating_before, rating_after
		FROM match_results
		WHERE match_id = $1
		ORDER BY placement NULLS LAST, player_id`

	var results []*match.Result
	if err := s.db.SelectContext(ctx, &results, query, matchID); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx match.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*player.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	var p player.Player
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, player.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

func (s *Store) RecentResults(ctx context.Context, playerID string, limit int) ([]*player.RecentResult, error) {
	query := `
		SELECT r.match_id, m.scope, m.mode, m.aborted, m.abort_reason,
			r.points, r.placement, r.elo_delta, r.rating_after, m.created_at
		FROM match_results r
		JOIN matches m ON m.id = r.match_id
		WHERE r.player_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`

	var results []*player.RecentResult
	if err := s.db.SelectContext(ctx, &results, query, playerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}
	return results, nil
}

// TopPlayers returns the best limit players plus anyone sharing the rating
// of the last one, so a tie at the cut is complete.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]*player.Player, error) {
	query := `SELECT ` + playerColumns + `
		FROM players
		WHERE rating >= COALESCE((
			SELECT rating FROM players
			ORDER BY rating DESC, ranked_games DESC, id
			OFFSET $1 - 1 LIMIT 1
		), 0)
		ORDER BY rating DESC, ranked_games DESC, id`

	var players []*player.Player
	if err := s.db.SelectContext(ctx, &players, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list top players: %w", err)
	}
	return players, nil
}

type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) LockPlayers(ctx context.Context, seeds []player.Seed) (map[string]*player.Player, error) {
	sorted := make([]player.Seed, len(seeds))
	copy(sorted, seeds)
	slices.SortFunc(sorted, func(a, b player.Seed) int { return strings.Compare(a.ID, b.ID) })

	// a non-empty reported name refreshes the stored one
	upsert := `
		INSERT INTO players (id, display_name, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name
		WHERE EXCLUDED.display_name <> '' AND players.display_name <> EXCLUDED.display_name`

	ids := make([]string, len(sorted))
	for i, seed := range sorted {
		if _, err := t.tx.ExecContext(ctx, upsert, seed.ID, seed.DisplayName, seed.Rating); err != nil {
			return nil, fmt.Errorf("failed to create player %s: %w", seed.ID, err)
		}
		ids[i] = seed.ID
	}

	query := `SELECT ` + playerColumns + `
		FROM players
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	var rows []*player.Player
	if err := t.tx.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to lock players: %w", err)
	}

	players := make(map[string]*player.Player, len(rows))
	for _, p := range rows {
		players[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := players[id]; !ok {
			return nil, fmt.Errorf("player %s missing after upsert", id)
		}
	}
	return players, nil
}

func (t *txStore) UpdatePlayer(ctx context.Context, p *player.Player) error {
	query := `
		UPDATE players
		SET rating = :rating,
			ranked_games = :ranked_games,
			casual_games = :casual_games,
			wins = :wins,
			total_points = :total_points,
			imposter_rounds = :imposter_rounds,
			imposter_wins = :imposter_wins,
			violation_count = :violation_count,
			suspended_until = :suspended_until,
			updated_at = now()
		WHERE id = :id`

	res, err := t.tx.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return player.ErrPlayerNotFound
	}
	return nil
}

func (t *txStore) InsertMatch(ctx context.Context, m *match.MatchRecord) error {
	query := `
		INSERT INTO matches (id, idempotency_key, scope, mode, aborted, abort_reason, placement_phase, created_at)
		VALUES (:id, :idempotency_key, :scope, :mode, :aborted, :abort_reason, :placement_phase, :created_at)`

	if _, err := t.tx.NamedExecContext(ctx, query, m); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return match.ErrDuplicateMatch
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (t *txStore) InsertRounds(ctx context.Context, matchID string, rounds []scoring.Round) error {
	query := `
		INSERT INTO match_rounds (match_id, round_no, imposter_id, winner, method, aborted)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, r := range rounds {
		if _, err := t.tx.ExecContext(ctx, query,
			matchID, r.RoundNo, r.ImposterID, string(r.Winner), r.Method, r.Aborted); err != nil {
			return fmt.Errorf("failed to insert round %d: %w", r.RoundNo, err)
		}
	}
	return nil
}

func (t *txStore) InsertResults(ctx context.Context, results []*match.Result) error {
	query := `
		INSERT INTO match_results (match_id, player_id, points, placement, elo_delta, rating_before, rating_after)
		VALUES (:match_id, :player_id, :points, :placement, :elo_delta, :rating_before, :rating_after)`

	for _, r := range results {
		if _, err := t.tx.NamedExecContext(ctx, query, r); err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", r.PlayerID, err)
		}
	}
	return nil
}

func (t *txStore) InsertViolation(ctx context.Context, v *match.Violation) error {
	query := `
		INSERT INTO violations (id, scope, player_id, type, match_id, created_at)
		VALUES (:id, :scope, :player_id, :type, :match_id, :created_at)`

	if _, err := t.tx.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}
	return nil
}

func (t *txStore) CountViolations(ctx context.Context, scope, playerID string) (int, error) {
	var count int
	if err := t.tx.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM violations WHERE scope = $1 AND player_id = $2", scope, playerID); err != nil {
		return 0, fmt.Errorf("failed to count violations: %w", err)
	}
	return count, nil
}
