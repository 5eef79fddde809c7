package match

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"imposter-stats/internal/auth"
	"imposter-stats/internal/platform/respond"
)

const (
	maxReportBytes = 1 << 20
	eventWriteWait = 10 * time.Second
)

type Handler struct {
	service  Service
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// ingest tokens are checked before the upgrade
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type settleResponse struct {
	OK bool `json:"ok"`
	*Settlement
}

func (h *Handler) SettleMatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var report Report
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&report); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		report.IdempotencyKey = key
	}
	if caller := auth.GetCallerFromContext(r.Context()); caller != nil {
		h.logger.InfoContext(r.Context(), "match report received",
			"scope", report.Scope, "caller", caller.Subject, "auth", caller.Source)
	}

	settlement, err := h.service.Settle(r.Context(), &report)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, settleResponse{OK: true, Settlement: settlement})
}

func (h *Handler) SubscribeToEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.service.Subscribe()
	defer cancel()

	// the reader only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// Routes registers the match endpoints. protect wraps handlers that require
// an ingest token.
func (h *Handler) Routes(router *httprouter.Router, protect func(httprouter.Handle) httprouter.Handle) {
	router.POST("/matches", protect(h.SettleMatch))
	router.GET("/matches/events", protect(h.SubscribeToEvents))
}

func writeError(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		respond.Error(w, status, Code(err), nil)
		return
	}
	respond.Error(w, status, Code(err), err)
}
