// Package api serves the read-only dashboard: a JSON status endpoint
// and a websocket stream of job and order events.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"kis-swingbot/internal/config"
	"kis-swingbot/internal/store"
)

// Server runs the HTTP/websocket API for the dashboard.
type Server struct {
	cfg      config.DashboardConfig
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	log      zerolog.Logger
}

func NewServer(cfg config.Config, s *store.Store, logger zerolog.Logger) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(s, cfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/status", handlers.HandleStatus)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)
	if cfg.Dashboard.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Dashboard.StaticDir)))
	}

	server := &http.Server{
		Addr:         cfg.Dashboard.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:      cfg.Dashboard,
		hub:      hub,
		handlers: handlers,
		server:   server,
		log:      logger.With().Str("component", "api-server").Logger(),
	}
}

// Publish broadcasts an event to all connected dashboard clients.
func (s *Server) Publish(evtType, code string, data any) {
	s.hub.BroadcastEvent(DashboardEvent{Type: evtType, Code: code, Data: data})
}

// Start runs the hub and the HTTP listener. Blocks until Stop.
func (s *Server) Start() error {
	go s.hub.Run()

	s.log.Info().Str("addr", s.server.Addr).Msg("dashboard server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.log.Info().Msg("stopping dashboard server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
