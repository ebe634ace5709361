// Package httpapi serves the read-only monitoring surface: health, metrics,
// the latest decision and snapshot, and a websocket stream of decision
// updates.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/quantgate/sharpeguard/internal/cache"
)

// DecisionSource provides the latest cached outputs.
type DecisionSource interface {
	Decision(ctx context.Context) (cache.DecisionPayload, bool, error)
	Snapshot(ctx context.Context) (cache.SnapshotPayload, bool, error)
}

// Config holds server settings.
type Config struct {
	Host          string
	Port          int
	RatePerSecond float64
	RateBurst     int
	PollInterval  time.Duration // decision poll cadence for the ws stream
}

// Server is the read-only monitor HTTP server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	source  DecisionSource
	hub     *Hub
	limiter *rate.Limiter
	config  Config
}

// NewServer wires routes, rate limiting and the websocket hub.
func NewServer(cfg Config, source DecisionSource) *Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}

	s := &Server{
		router:  mux.NewRouter(),
		source:  source,
		hub:     NewHub(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		config:  cfg,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/decision", s.rateLimited(s.handleDecision)).Methods(http.MethodGet)
	s.router.HandleFunc("/snapshot", s.rateLimited(s.handleSnapshot)).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.hub.HandleSubscribe)
}

// Start runs the server and the decision broadcast loop until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	go s.broadcastLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("monitor server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("monitor server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("monitor server shutdown: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// broadcastLoop polls the cache and pushes changed decisions to subscribers.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	var lastRunID string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, found, err := s.source.Decision(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("decision poll failed")
				continue
			}
			if !found || payload.RunID == lastRunID {
				continue
			}
			lastRunID = payload.RunID
			data, err := json.Marshal(payload)
			if err != nil {
				log.Warn().Err(err).Msg("failed to marshal decision broadcast")
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	payload, found, err := s.source.Decision(r.Context())
	if err != nil {
		http.Error(w, "decision lookup failed", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "no decision available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, found, err := s.source.Snapshot(r.Context())
	if err != nil {
		http.Error(w, "snapshot lookup failed", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "no snapshot available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
