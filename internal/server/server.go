package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/cache"
	"github.com/agentstation/fieldmatch/internal/server/middleware"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client    fieldmatch.Client
	catalogue *scenarios.Catalogue
	store     *store.Store
	cache     *cache.Cache
	limiter   *middleware.RateLimiter
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a server. history may be nil, which disables the run
// endpoints.
func New(client fieldmatch.Client, catalogue *scenarios.Catalogue, history *store.Store, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("server: client is required")
	}
	if catalogue == nil {
		catalogue = scenarios.Builtin()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = constants.APIPrefix
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return nil, fmt.Errorf("server: auth enabled without an API key")
	}

	s := &Server{
		client:    client,
		catalogue: catalogue,
		store:     history,
		cache:     cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	// Cached responses derive from the taxonomy; drop them when it changes.
	client.OnRefresh(func(_, _ *taxonomy.Taxonomy, changes *taxonomy.Changeset) {
		s.cache.Clear()
		s.logger.Info().Str("changes", changes.String()).Msg("Taxonomy changed, response cache cleared")
	})

	return s, nil
}

// Handler returns the router with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.limiter != nil {
		go s.limiter.Run(ctx, 5*time.Minute)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("prefix", s.config.PathPrefix).Msg("Server listening")
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Cache returns the server's response cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
