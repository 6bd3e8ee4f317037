package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/eddist-go/bbs/internal/config"
	"github.com/eddist-go/bbs/internal/database"
	"github.com/eddist-go/bbs/internal/httpapi"
	"github.com/eddist-go/bbs/internal/streaming"
)

// Server wires the bbs.cgi HTTP surface to its net/http listener: the
// request router, the write/auth-code rate limiters, and graceful
// shutdown of the listener and the limiters.
type Server struct {
	cfg        *config.Config
	db         *database.DB
	handlers   *httpapi.Handlers
	streams    *streaming.Manager
	httpServer *http.Server
	router     *Router

	writeLimiter    *RateLimiter
	authCodeLimiter *RateLimiter
}

// New builds a Server around an already-wired Handlers (pipeline, board
// repository, token store, stream manager) plus the board-wide rate
// limits that gate POST /test/bbs.cgi and POST /auth-code.
func New(cfg *config.Config, db *database.DB, handlers *httpapi.Handlers, streams *streaming.Manager) *Server {
	srv := &Server{
		cfg:      cfg,
		db:       db,
		handlers: handlers,
		streams:  streams,
	}

	srv.writeLimiter = NewRateLimiter(cfg.Board.WriteRateLimit)
	srv.authCodeLimiter = NewRateLimiter(cfg.Board.AuthCodeRateLimit)

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

func (s *Server) Start(ctx context.Context) error {
	log.Info().Str("addr", s.cfg.Server.Address()).Msg("starting server")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	s.writeLimiter.Stop()
	s.authCodeLimiter.Stop()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) DB() *database.DB {
	return s.db
}

func (s *Server) Config() *config.Config {
	return s.cfg
}

func (s *Server) Handlers() *httpapi.Handlers {
	return s.handlers
}

func (s *Server) Streams() *streaming.Manager {
	return s.streams
}

func (s *Server) WriteLimiter() *RateLimiter {
	return s.writeLimiter
}

func (s *Server) AuthCodeLimiter() *RateLimiter {
	return s.authCodeLimiter
}

func (s *Server) dbStats() string {
	stats := s.db.Stats()
	return fmt.Sprintf("open=%d in_use=%d idle=%d", stats.OpenConnections, stats.InUse, stats.Idle)
}
