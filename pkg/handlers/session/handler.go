package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/de-tools/ratio-atlas/pkg/adapters"
	"github.com/de-tools/ratio-atlas/pkg/models/api"
	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/de-tools/ratio-atlas/pkg/services/analysis"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

// Controller is the analysis session as driven by the UI: the read-only view
// plus the two operations allowed to change it.
type Controller interface {
	analysis.View
	FetchAnalysis(ctx context.Context, raw string)
	ClearResults()
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) (*domain.HealthStatus, error)
}

type Handler struct {
	session  Controller
	health   HealthChecker
	upgrader websocket.Upgrader
}

func NewHandler(session Controller, health HealthChecker) *Handler {
	return &Handler{
		session: session,
		health:  health,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, adapters.MapDomainSessionToAPI(h.session.Snapshot()))
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ticker, err := url.PathUnescape(chi.URLParam(r, "ticker"))
	if err != nil {
		http.Error(w, "invalid ticker path segment", http.StatusBadRequest)
		return
	}

	// The session outlives the caller, so a dropped connection must not fail it.
	// The store's own deadline still bounds the fetch.
	h.session.FetchAnalysis(context.WithoutCancel(r.Context()), ticker)
	writeJSON(w, r, http.StatusOK, adapters.MapDomainSessionToAPI(h.session.Snapshot()))
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.session.ClearResults()
	writeJSON(w, r, http.StatusOK, adapters.MapDomainSessionToAPI(h.session.Snapshot()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.health.HealthCheck(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusBadGateway, api.ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainHealthToAPI(*health))
}

// Stream pushes every session state change to a websocket client until
// either side goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to upgrade session stream")
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug().Err(err).Msg("failed to close session stream")
		}
	}()

	updates, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	// The client never sends anything; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				logger.Debug().Err(err).Msg("failed to set session stream write deadline")
				return
			}
			if err := conn.WriteJSON(adapters.MapDomainSessionToAPI(state)); err != nil {
				logger.Debug().Err(err).Msg("session stream write failed")
				return
			}
		case <-gone:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
