// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/api/handlers"
	"github.com/autobrr/seederbot/internal/api/middleware"
	"github.com/autobrr/seederbot/internal/config"
	"github.com/autobrr/seederbot/pkg/httphelpers"
)

// Dependencies holds everything the router needs. Ranker and WatchDir are nil
// in modes that do not use them.
type Dependencies struct {
	Config    *config.AppConfig
	Grabber   handlers.Grabber
	Health    handlers.HealthChecker
	Watchlist handlers.WatchlistService
	Ranker    handlers.Ranker
	Releases  handlers.ReleaseDescriber
	WatchDir  handlers.WatchDirStatusSource
}

type Server struct {
	server *http.Server
	logger zerolog.Logger
	config *config.AppConfig
	deps   *Dependencies
}

func NewServer(deps *Dependencies) *Server {
	cfg := deps.Config.Get()
	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: log.Logger.With().Str("module", "api").Logger(),
		config: deps.Config,
		deps:   deps,
	}
}

// ListenAndServe blocks until Shutdown. A Shutdown that happens first makes it
// return immediately.
func (s *Server) ListenAndServe() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.server.Handler = handler

	s.logger.Info().Str("addr", s.server.Addr).Str("mode", s.config.Get().Mode).Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler builds the router. Everything except /health requires the app token.
func (s *Server) Handler() (*chi.Mux, error) {
	cfg := s.config.Get()

	compress, err := middleware.Compress(0)
	if err != nil {
		return nil, errors.Wrap(err, "could not create compression middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(s.corsMiddleware(cfg.CORSAllowedOrigins))
	r.Use(compress)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusMethodNotAllowed, handlers.ErrorResponse{
			Status:  "error",
			Message: "Method Not Allowed",
			Type:    "HTTPException",
		})
	})

	basePath := httphelpers.NormalizeBasePath(cfg.BaseURL)
	if basePath == "" {
		s.routes(r)
	} else {
		r.Route(basePath, s.routes)
	}

	return r, nil
}

func (s *Server) routes(r chi.Router) {
	r.Route("/health", handlers.NewHealthHandler(s.config.Get().ServiceMode(), s.deps.Health).Routes)

	requireToken := middleware.RequireToken(func() string {
		return s.config.Get().AppToken
	})

	maxConcurrent := max(s.config.Get().MaxConcurrentRequests, 1)

	r.Group(func(r chi.Router) {
		r.Use(requireToken)

		r.With(middleware.ThrottleBacklog(maxConcurrent, maxConcurrent*2, s.config.Get().RequestTimeout)).
			Post("/grab", handlers.NewGrabHandler(s.deps.Grabber).HandleGrab)

		r.Route("/api", func(r chi.Router) {
			r.Get("/version", handlers.HandleVersion)
			r.Get("/search", handlers.NewSearchHandler(s.deps.Ranker, s.deps.Releases).HandleSearch)
			r.Get("/watch-dir", handlers.NewWatchDirHandler(s.deps.WatchDir).HandleStatus)
			if s.deps.Watchlist != nil {
				r.Route("/watchlist", handlers.NewWatchlistHandler(s.deps.Watchlist).Routes)
			}
		})
	})
}

func (s *Server) corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
