// Package api exposes the on-demand jackpot query and the run trigger over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	"github.com/rs/zerolog"

	"jackpot-alerts/internal/config"
	"jackpot-alerts/internal/service"
	"jackpot-alerts/internal/tasks"
)

// Server wraps the HTTP listener and the background work adopted from
// triggered runs.
type Server struct {
	srv        *http.Server
	background *tasks.Group
	logger     zerolog.Logger
	shutdown   time.Duration
}

// NewServer builds the server for the given checker.
func NewServer(cfg config.HTTPConfig, checker Checker, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()
	s := &Server{
		background: tasks.NewGroup(logger),
		logger:     logger,
		shutdown:   cfg.ShutdownTimeout,
	}
	if s.shutdown <= 0 {
		s.shutdown = 10 * time.Second
	}

	h := &Handler{checker: checker, adopt: s.adopt, logger: logger}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(h, cfg.CORSAllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// NewRouter creates the chi router with middleware and routes.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := corslib.New(corslib.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jackpots", h.GetJackpots)
		r.Post("/runs", h.TriggerRun)
	})

	return r
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Serve listens until ctx is cancelled, then shuts down and drains adopted
// background tasks.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error().Err(err).Msg("http server failed")
			s.drain()
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("http shutdown error")
	}
	s.drain()
	s.logger.Info().Msg("http server stopped")
	return nil
}

// Drain waits for every adopted background task.
func (s *Server) Drain() error {
	return s.background.Wait()
}

func (s *Server) drain() {
	if err := s.Drain(); err != nil {
		s.logger.Warn().Err(err).Msg("background tasks finished with errors")
	}
}

func (s *Server) adopt(report *service.Report) {
	if report == nil || report.Background == nil {
		return
	}
	s.background.Go("run:"+report.RunID, report.Background.Wait)
}
