// Package api exposes the booking operations over HTTP with API-key auth,
// per-client rate limiting and request logging.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"studiobook/internal/ai"
	"studiobook/internal/config"
	"studiobook/internal/store"
)

type Server struct {
	cfg       config.APIConfig
	store     *store.BookingStore
	ai        *ai.Client
	exportDir string
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth
}

// NewServer wires routes and middleware. The ai client may be nil; its
// endpoints then answer 503.
func NewServer(cfg config.Config, bookings *store.BookingStore, aiClient *ai.Client, logger *zerolog.Logger) *Server {
	mux := http.NewServeMux()
	srv := &Server{
		cfg:       cfg.API,
		store:     bookings,
		ai:        aiClient,
		exportDir: cfg.Exports.Path,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg.API)

	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/stats", srv.handleStats)
	mux.HandleFunc("/api/v1/calendar", srv.handleCalendar)
	mux.HandleFunc("/api/v1/today", srv.handleToday)
	mux.HandleFunc("/api/v1/upcoming", srv.handleUpcoming)
	mux.HandleFunc("/api/v1/ai/fill", srv.handleAIFill)
	mux.HandleFunc("/api/v1/ai/chat", srv.handleAIChat)
	mux.HandleFunc("/api/v1/export/csv", srv.handleExportCSV)
	mux.HandleFunc("/api/v1/export/schedule", srv.handleExportSchedule)
	mux.HandleFunc("/healthz", srv.handleHealth)
	if cfg.Monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
