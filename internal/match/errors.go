package match

import (
	"errors"
	"net/http"

	"imposter-stats/internal/match/modes"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBadRequest          = errors.New("bad request")
	ErrExpectedFourPlayers = errors.New("expected 4 players")
	ErrUnknownMode         = modes.ErrUnknownMode
	ErrMalformedReport     = errors.New("malformed report")
	ErrNotQualified        = errors.New("player not qualified for ranked")
	ErrSuspended           = errors.New("player suspended")
	ErrMatchNotFound       = errors.New("match not found")
	ErrDuplicateMatch      = errors.New("match already recorded")
)

// PlayerError is a rejection caused by one participant
type PlayerError struct {
	Err      error
	PlayerID string
}

func (e *PlayerError) Error() string {
	return e.Err.Error() + ": " + e.PlayerID
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// Code maps an error to the machine-readable code returned to reporters.
func Code(err error) string {
	var playerErr *PlayerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrExpectedFourPlayers):
		return "expected 4 players"
	case errors.Is(err, ErrUnknownMode):
		return "unknown_mode"
	case errors.Is(err, ErrMalformedReport):
		return "malformed_report"
	case errors.As(err, &playerErr) && errors.Is(err, ErrNotQualified):
		return "player_not_qualified_for_ranked:" + playerErr.PlayerID
	case errors.As(err, &playerErr) && errors.Is(err, ErrSuspended):
		return "player_suspended:" + playerErr.PlayerID
	default:
		return "internal_error"
	}
}

// Status maps an error to its HTTP status
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrExpectedFourPlayers),
		errors.Is(err, ErrUnknownMode),
		errors.Is(err, ErrMalformedReport):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotQualified), errors.Is(err, ErrSuspended):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsRejection reports whether err is a caller error rather than a failure
func IsRejection(err error) bool {
	return Status(err) < http.StatusInternalServerError
}
