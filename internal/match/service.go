package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"imposter-stats/internal/match/modes"
	"imposter-stats/internal/match/ranking"
	"imposter-stats/internal/match/scoring"
	"imposter-stats/internal/match/violation"
	"imposter-stats/internal/platform/keylock"
	"imposter-stats/internal/player"
)

const (
	DefaultRating         = 1000
	DefaultAlertThreshold = 3
	postCommitTimeout     = 15 * time.Second
)

type Service interface {
	// Settle validates, scores and persists one report. Replaying a report
	// with a known idempotency key returns the stored outcome with Duplicate set.
	Settle(ctx context.Context, report *Report) (*Settlement, error)
	Subscribe() (<-chan Event, func())
}

type service struct {
	store          Store
	locks          *keylock.Locker
	hub            *Hub
	archiver       Archiver
	notifier       Notifier
	recorder       Recorder
	logger         *slog.Logger
	now            func() time.Time
	defaultRating  int
	alertThreshold int
}

// Option configures the settlement service
type Option func(*service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

func WithArchiver(a Archiver) Option {
	return func(s *service) { s.archiver = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

func WithRecorder(r Recorder) Option {
	return func(s *service) { s.recorder = r }
}

func WithHub(h *Hub) Option {
	return func(s *service) { s.hub = h }
}

func WithLocker(l *keylock.Locker) Option {
	return func(s *service) { s.locks = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithDefaultRating(rating int) Option {
	return func(s *service) { s.defaultRating = rating }
}

// WithAlertThreshold sets the violation count at which moderators are e-mailed
func WithAlertThreshold(count int) Option {
	return func(s *service) { s.alertThreshold = count }
}

func NewService(store Store, opts ...Option) Service {
	s := &service{
		store:          store,
		locks:          keylock.New(),
		hub:            NewHub(defaultSubscriberBuffer),
		archiver:       noopArchiver{},
		notifier:       noopNotifier{},
		recorder:       noopRecorder{},
		logger:         slog.Default(),
		now:            time.Now,
		defaultRating:  DefaultRating,
		alertThreshold: DefaultAlertThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Subscribe() (<-chan Event, func()) {
	return s.hub.Subscribe()
}

func (s *service) Settle(ctx context.Context, report *Report) (*Settlement, error) {
	start := s.now()

	settlement, err := s.settle(ctx, report)
	if err != nil {
		code := Code(err)
		if IsRejection(err) {
			s.recorder.Rejected(code)
			s.logger.WarnContext(ctx, "match rejected", "code", code, "scope", report.Scope, "error", err)
		} else {
			s.recorder.Failed()
			s.logger.ErrorContext(ctx, "match settlement failed", "scope", report.Scope, "error", err)
		}
		return nil, err
	}

	if settlement.Duplicate {
		s.recorder.Duplicate()
		s.logger.InfoContext(ctx, "duplicate match report", "match_id", settlement.MatchID)
		return settlement, nil
	}

	s.recorder.Settled(string(settlement.Mode), settlement.Aborted, s.now().Sub(start).Seconds())
	s.logger.InfoContext(ctx, "match settled",
		"match_id", settlement.MatchID,
		"scope", settlement.Scope,
		"mode", settlement.Mode,
		"aborted", settlement.Aborted,
		"placement_phase", settlement.PlacementPhase,
	)
	return settlement, nil
}

func (s *service) settle(ctx context.Context, report *Report) (*Settlement, error) {
	report.Normalize()
	if err := report.Validate(); err != nil {
		return nil, err
	}
	mode, _ := modes.Parse(report.Mode)

	// violation reports abort without scoring
	var (
		scored *scoring.ScoredMatch
		err    error
	)
	if report.Violation == nil {
		if scored, err = report.Score(); err != nil {
			return nil, err
		}
	}

	key := report.IdempotencyKey
	if key == "" {
		if key, err = Fingerprint(report); err != nil {
			return nil, err
		}
		s.logger.WarnContext(ctx, "match report has no idempotency key, using content fingerprint",
			"scope", report.Scope, "key", key)
	}

	unlock, err := s.locks.Lock(ctx, report.PlayerIDs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock players: %w", err)
	}
	defer unlock()

	existing, err := s.store.FindMatchByKey(ctx, key)
	switch {
	case err == nil:
		return s.duplicate(ctx, existing)
	case !errors.Is(err, ErrMatchNotFound):
		return nil, fmt.Errorf("failed to look up match: %w", err)
	}

	record := &MatchRecord{
		ID:             uuid.New().String(),
		IdempotencyKey: key,
		Scope:          report.Scope,
		Mode:           mode,
		CreatedAt:      s.now(),
	}

	var (
		settlement *Settlement
		offender   *player.Player
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		players, err := tx.LockPlayers(ctx, report.Seeds(s.defaultRating))
		if err != nil {
			return fmt.Errorf("failed to lock players: %w", err)
		}

		if report.Violation != nil {
			offender = players[report.Violation.PlayerID]
			settlement, err = s.settleViolation(ctx, tx, record, report, players)
		} else {
			settlement, err = s.settleNormal(ctx, tx, record, report, scored, players)
		}
		return err
	})
	if errors.Is(err, ErrDuplicateMatch) {
		existing, ferr := s.store.FindMatchByKey(ctx, key)
		if ferr != nil {
			return nil, fmt.Errorf("failed to load duplicate match: %w", ferr)
		}
		return s.duplicate(ctx, existing)
	}
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, report, settlement, offender)
	return settlement, nil
}

func (s *service) settleNormal(ctx context.Context, tx Tx, record *MatchRecord, report *Report, scored *scoring.ScoredMatch, players map[string]*player.Player) (*Settlement, error) {
	competitive := modes.IsCompetitive(record.Mode)
	ids := report.PlayerIDs()
	now := s.now()

	for _, id := range ids {
		if !modes.Qualified(record.Mode, players[id].CasualGames) {
			return nil, &PlayerError{Err: ErrNotQualified, PlayerID: id}
		}
	}
	for _, id := range ids {
		if players[id].Suspended(now) {
			return nil, &PlayerError{Err: ErrSuspended, PlayerID: id}
		}
	}

	placements := ranking.ResolvePlacements(scored.Entries())

	deltas := make(map[string]int, len(ids))
	if competitive {
		ratings := make(map[string]int, len(ids))
		inPlacement := make(map[string]bool, len(ids))
		for _, id := range ids {
			ratings[id] = players[id].Rating
			inPlacement[id] = players[id].InPlacement()
			record.PlacementPhase = record.PlacementPhase || inPlacement[id]
		}

		var err error
		if deltas, err = ranking.ComputeDeltas(placements, ratings, inPlacement); err != nil {
			return nil, fmt.Errorf("failed to compute rating deltas: %w", err)
		}
	}

	results := make([]*Result, 0, len(placements))
	for _, pl := range placements {
		p := players[pl.ID]
		placement := pl.Placement
		result := &Result{
			MatchID:      record.ID,
			PlayerID:     pl.ID,
			Points:       pl.Score,
			Placement:    &placement,
			EloDelta:     deltas[pl.ID],
			RatingBefore: p.Rating,
			RatingAfter:  p.Rating,
		}
		if competitive {
			result.RatingAfter = ranking.CalculateNewRating(p.Rating, result.EloDelta)
			p.RankedGames++
		} else {
			p.CasualGames++
		}
		results = append(results, result)

		p.Rating = result.RatingAfter
		p.TotalPoints += pl.Score
		p.ImposterRounds += scored.ImposterRounds[pl.ID]
		p.ImposterWins += scored.ImposterWins[pl.ID]
		if pl.Placement < 2 {
			p.Wins++
		}
		p.UpdatedAt = now
	}

	if err := s.persist(ctx, tx, record, report, results, players); err != nil {
		return nil, err
	}

	return newSettlement(record, results), nil
}

func (s *service) settleViolation(ctx context.Context, tx Tx, record *MatchRecord, report *Report, players map[string]*player.Player) (*Settlement, error) {
	v := report.Violation
	ids := report.PlayerIDs()
	now := s.now()

	record.Aborted = true
	record.AbortReason = violation.AbortReason(v.Type)

	deltas := violation.AbortDeltas(record.Mode, v.PlayerID, ids)
	results := make([]*Result, 0, len(ids))
	for _, id := range ids {
		p := players[id]
		result := &Result{
			MatchID:      record.ID,
			PlayerID:     id,
			EloDelta:     deltas[id],
			RatingBefore: p.Rating,
			RatingAfter:  ranking.CalculateNewRating(p.Rating, deltas[id]),
		}
		results = append(results, result)
		p.Rating = result.RatingAfter
		p.UpdatedAt = now
	}

	if err := tx.InsertMatch(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	rec := &Violation{
		ID:        uuid.New().String(),
		Scope:     record.Scope,
		PlayerID:  v.PlayerID,
		Type:      v.Type,
		MatchID:   record.ID,
		CreatedAt: now,
	}
	if err := tx.InsertViolation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert violation: %w", err)
	}
	count, err := tx.CountViolations(ctx, record.Scope, v.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count violations: %w", err)
	}

	offender := players[v.PlayerID]
	outcome := violation.Escalate(now, count, offender.SuspendedUntil)
	offender.ViolationCount = outcome.Count
	offender.SuspendedUntil = &outcome.SuspendedUntil

	if err := s.persistRest(ctx, tx, record, report, results, players); err != nil {
		return nil, err
	}

	settlement := newSettlement(record, results)
	settlement.Violation = &ViolationOutcome{
		PlayerID:          v.PlayerID,
		Type:              v.Type,
		Count:             outcome.Count,
		SuspensionMinutes: int(outcome.Duration / time.Minute),
		SuspendedUntil:    outcome.SuspendedUntil,
	}
	return settlement, nil
}

func (s *service) persist(ctx context.Context, tx Tx, record *MatchRecord, report *Report, results []*Result, players map[string]*player.Player) error {
	if err := tx.InsertMatch(ctx, record); err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return s.persistRest(ctx, tx, record, report, results, players)
}

// persistRest writes everything that hangs off an inserted match row.
func (s *service) persistRest(ctx context.Context, tx Tx, record *MatchRecord, report *Report, results []*Result, players map[string]*player.Player) error {
	if len(report.Rounds) > 0 {
		if err := tx.InsertRounds(ctx, record.ID, report.Rounds); err != nil {
			return fmt.Errorf("failed to insert rounds: %w", err)
		}
	}
	if err := tx.InsertResults(ctx, results); err != nil {
		return fmt.Errorf("failed to insert results: %w", err)
	}
	for _, id := range report.PlayerIDs() {
		if err := tx.UpdatePlayer(ctx, players[id]); err != nil {
			return fmt.Errorf("failed to update player %s: %w", id, err)
		}
	}
	return nil
}

func (s *service) duplicate(ctx context.Context, existing *MatchRecord) (*Settlement, error) {
	results, err := s.store.ListResults(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	settlement := newSettlement(existing, results)
	settlement.Duplicate = true
	return settlement, nil
}

// afterCommit runs the side effects that must not fail a committed settlement.
func (s *service) afterCommit(ctx context.Context, report *Report, settlement *Settlement, offender *player.Player) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if raw, err := json.Marshal(report); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode report for archive", "match_id", settlement.MatchID, "error", err)
	} else if err := s.archiver.Archive(ctx, settlement.Scope, settlement.MatchID, raw); err != nil {
		s.logger.ErrorContext(ctx, "failed to archive report", "match_id", settlement.MatchID, "error", err)
	}

	if v := settlement.Violation; v != nil && s.alertThreshold > 0 && v.Count >= s.alertThreshold {
		alert := Alert{
			Scope:          settlement.Scope,
			PlayerID:       v.PlayerID,
			Type:           v.Type,
			MatchID:        settlement.MatchID,
			Count:          v.Count,
			SuspendedUntil: v.SuspendedUntil,
		}
		if offender != nil {
			alert.DisplayName = offender.DisplayName
		}
		if err := s.notifier.NotifyViolation(ctx, alert); err != nil {
			s.logger.ErrorContext(ctx, "failed to notify moderators", "player_id", v.PlayerID, "error", err)
		}
	}

	s.hub.Publish(Event{
		Type:      EventTypeMatchSettled,
		MatchID:   settlement.MatchID,
		Scope:     settlement.Scope,
		Timestamp: s.now(),
		Payload:   settlement,
	})
}

func newSettlement(record *MatchRecord, results []*Result) *Settlement {
	return &Settlement{
		MatchID:        record.ID,
		Scope:          record.Scope,
		Mode:           record.Mode,
		Aborted:        record.Aborted,
		AbortReason:    record.AbortReason,
		PlacementPhase: record.PlacementPhase,
		Results:        results,
	}
}

type noopArchiver struct{}

func (noopArchiver) Archive(context.Context, string, string, []byte) error { return nil }

type noopNotifier struct{}

func (noopNotifier) NotifyViolation(context.Context, Alert) error { return nil }

type noopRecorder struct{}

func (noopRecorder) Settled(string, bool, float64) {}
func (noopRecorder) Rejected(string)               {}
func (noopRecorder) Duplicate()                    {}
func (noopRecorder) Failed()                       {}
