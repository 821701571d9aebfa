package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"kis-swingbot/internal/config"
	"kis-swingbot/internal/store"
)

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	store *store.Store
	cfg   config.Config
	hub   *Hub
	log   zerolog.Logger
}

func NewHandlers(s *store.Store, cfg config.Config, hub *Hub, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store: s,
		cfg:   cfg,
		hub:   hub,
		log:   logger.With().Str("component", "api-handlers").Logger(),
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleStatus returns the current dashboard state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := BuildStatus(h.store, h.cfg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build status")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("failed to encode status")
	}
}

// HandleWebSocket upgrades the connection and registers a new client.
// The initial status is pushed immediately so the dashboard renders
// without waiting for the next event.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r.Header.Get("Origin"), h.cfg.Dashboard, r.Host)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn)

	status, err := BuildStatus(h.store, h.cfg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build initial status")
		return
	}
	data, err := json.Marshal(DashboardEvent{Type: "status", Data: status})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal initial status")
		return
	}

	select {
	case client.send <- data:
	default:
		h.log.Warn().Msg("failed to send initial status to client")
	}
}

// isOriginAllowed applies the websocket origin policy: explicit
// allowlist when configured, otherwise same-host or localhost.
func isOriginAllowed(origin string, cfg config.DashboardConfig, reqHost string) bool {
	if origin == "" {
		return true
	}
	if len(cfg.AllowedOrigins) > 0 {
		for _, allowed := range cfg.AllowedOrigins {
			if strings.EqualFold(strings.TrimSpace(allowed), origin) {
				return true
			}
		}
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == reqHost {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
