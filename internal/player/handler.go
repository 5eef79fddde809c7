package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"imposter-stats/internal/match/ranking"
	"imposter-stats/internal/platform/respond"
)

const (
	RecentLimit             = 5
	DefaultLeaderboardLimit = 25
	MaxLeaderboardLimit     = 100
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidLimit   = errors.New("limit must be a positive integer")
)

// Store defines the read operations behind the player endpoints
type Store interface {
	GetPlayer(ctx context.Context, id string) (*Player, error)
	RecentResults(ctx context.Context, playerID string, limit int) ([]*RecentResult, error)
	// TopPlayers returns at least the best limit players by rating, extended
	// with every player tied with the last of them.
	TopPlayers(ctx context.Context, limit int) ([]*Player, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.store.GetPlayer(r.Context(), ps.ByName("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"player": NewProfile(p),
	})
}

// GetRecent returns the player's latest results with the placements
// recorded at settlement time.
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, err := h.store.GetPlayer(r.Context(), id); err != nil {
		writeLookupError(w, err)
		return
	}

	results, err := h.store.RecentResults(r.Context(), id, RecentLimit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if results == nil {
		results = []*RecentResult{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"player_id": id,
		"results":   results,
	})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	players, err := h.store.TopPlayers(r.Context(), limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	board := Leaderboard(players)
	if len(board) > limit {
		board = board[:limit]
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"entries": board,
	})
}

// Leaderboard ranks players by rating. Equal ratings share a position.
func Leaderboard(players []*Player) []*LeaderboardEntry {
	byID := make(map[string]*Player, len(players))
	entries := make([]ranking.Entry, len(players))
	for i, p := range players {
		byID[p.ID] = p
		entries[i] = ranking.Entry{ID: p.ID, Score: p.Rating}
	}

	placements := ranking.ResolvePlacements(entries)
	board := make([]*LeaderboardEntry, len(placements))
	for i, pl := range placements {
		board[i] = &LeaderboardEntry{
			Position: pl.Placement,
			Profile:  NewProfile(byID[pl.ID]),
		}
	}
	return board
}

func (h *Handler) Routes(router *httprouter.Router) {
	router.GET("/players/:id", h.GetPlayer)
	router.GET("/players/:id/recent", h.GetRecent)
	router.GET("/leaderboard", h.GetLeaderboard)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLeaderboardLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, raw)
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit, nil
	}
	return limit, nil
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPlayerNotFound) {
		respond.Error(w, http.StatusNotFound, "player_not_found", err)
		return
	}
	respond.Error(w, http.StatusInternalServerError, "internal_error", nil)
}
