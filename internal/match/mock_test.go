package match

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"imposter-stats/internal/match/scoring"
	"imposter-stats/internal/player"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindMatchByKey(ctx context.Context, key string) (*MatchRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MatchRecord), args.Error(1)
}

func (m *MockStore) ListResults(ctx context.Context, matchID string) ([]*Result, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Result), args.Error(1)
}

func (m *MockStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockArchiver is a mock implementation of Archiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, scope, matchID string, report []byte) error {
	args := m.Called(ctx, scope, matchID, report)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyViolation(ctx context.Context, alert Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Settled(mode string, aborted bool, seconds float64) {
	m.Called(mode, aborted, seconds)
}

func (m *MockRecorder) Rejected(code string) {
	m.Called(code)
}

func (m *MockRecorder) Duplicate() {
	m.Called()
}

func (m *MockRecorder) Failed() {
	m.Called()
}

// MockService is a mock implementation of Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Settle(ctx context.Context, report *Report) (*Settlement, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Settlement), args.Error(1)
}

func (m *MockService) Subscribe() (<-chan Event, func()) {
	args := m.Called()
	return args.Get(0).(<-chan Event), args.Get(1).(func())
}

var errInjected = errors.New("injected storage failure")

// memStore is an in-memory Store with all-or-nothing transactions
type memStore struct {
	mu    sync.Mutex
	state *memState
	// failOn names a Tx method that fails inside the next transaction
	failOn string
}

type memState struct {
	players    map[string]*player.Player
	matches    map[string]*MatchRecord
	keys       map[string]string
	rounds     map[string][]scoring.Round
	results    map[string][]*Result
	violations []*Violation
}

func newMemStore(players ...*player.Player) *memStore {
	s := &memStore{state: &memState{
		players: make(map[string]*player.Player),
		matches: make(map[string]*MatchRecord),
		keys:    make(map[string]string),
		rounds:  make(map[string][]scoring.Round),
		results: make(map[string][]*Result),
	}}
	for _, p := range players {
		cp := *p
		s.state.players[p.ID] = &cp
	}
	return s
}

func (st *memState) clone() *memState {
	c := &memState{
		players:    make(map[string]*player.Player, len(st.players)),
		matches:    make(map[string]*MatchRecord, len(st.matches)),
		keys:       make(map[string]string, len(st.keys)),
		rounds:     make(map[string][]scoring.Round, len(st.rounds)),
		results:    make(map[string][]*Result, len(st.results)),
		violations: append([]*Violation(nil), st.violations...),
	}
	for k, v := range st.players {
		cp := *v
		c.players[k] = &cp
	}
	for k, v := range st.matches {
		c.matches[k] = v
	}
	for k, v := range st.keys {
		c.keys[k] = v
	}
	for k, v := range st.rounds {
		c.rounds[k] = v
	}
	for k, v := range st.results {
		c.results[k] = v
	}
	return c
}

func (s *memStore) player(id string) *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.players[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *memStore) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.matches)
}

func (s *memStore) FindMatchByKey(_ context.Context, key string) (*MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.state.keys[key]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return s.state.matches[id], nil
}

func (s *memStore) ListResults(_ context.Context, matchID string) ([]*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.results[matchID], nil
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone(), failOn: s.failOn}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

type memTx struct {
	state  *memState
	failOn string
}

func (t *memTx) fail(method string) error {
	if t.failOn == method {
		return errInjected
	}
	return nil
}

func (t *memTx) LockPlayers(_ context.Context, seeds []player.Seed) (map[string]*player.Player, error) {
	if err := t.fail("LockPlayers"); err != nil {
		return nil, err
	}
	players := make(map[string]*player.Player, len(seeds))
	for _, seed := range seeds {
		p, ok := t.state.players[seed.ID]
		if !ok {
			p = &player.Player{ID: seed.ID, DisplayName: seed.DisplayName, Rating: seed.Rating}
			t.state.players[seed.ID] = p
		}
		cp := *p
		players[seed.ID] = &cp
	}
	return players, nil
}

func (t *memTx) UpdatePlayer(_ context.Context, p *player.Player) error {
	if err := t.fail("UpdatePlayer"); err != nil {
		return err
	}
	cp := *p
	t.state.players[p.ID] = &cp
	return nil
}

func (t *memTx) InsertMatch(_ context.Context, m *MatchRecord) error {
	if err := t.fail("InsertMatch"); err != nil {
		return err
	}
	if _, ok := t.state.keys[m.IdempotencyKey]; ok {
		return ErrDuplicateMatch
	}
	cp := *m
	t.state.matches[m.ID] = &cp
	t.state.keys[m.IdempotencyKey] = m.ID
	return nil
}

func (t *memTx) InsertRounds(_ context.Context, matchID string, rounds []scoring.Round) error {
	if err := t.fail("InsertRounds"); err != nil {
		return err
	}
	t.state.rounds[matchID] = append([]scoring.Round(nil), rounds...)
	return nil
}

func (t *memTx) InsertResults(_ context.Context, results []*Result) error {
	if err := t.fail("InsertResults"); err != nil {
		return err
	}
	for _, r := range results {
		cp := *r
		t.state.results[r.MatchID] = append(t.state.results[r.MatchID], &cp)
	}
	return nil
}

func (t *memTx) InsertViolation(_ context.Context, v *Violation) error {
	if err := t.fail("InsertViolation"); err != nil {
		return err
	}
	cp := *v
	t.state.violations = append(t.state.violations, &cp)
	return nil
}

func (t *memTx) CountViolations(_ context.Context, scope, playerID string) (int, error) {
	if err := t.fail("CountViolations"); err != nil {
		return 0, err
	}
	count := 0
	for _, v := range t.state.violations {
		if v.Scope == scope && v.PlayerID == playerID {
			count++
		}
	}
	return count, nil
}
