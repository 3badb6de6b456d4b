// Package ui serves a live status page for emit --watch.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tsbridge/internal/emit"
	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/ui/features/status"
	"github.com/leapstack-labs/tsbridge/internal/ui/notifier"
	"github.com/leapstack-labs/tsbridge/internal/ui/router"
)

// Server is the status server.
type Server struct {
	addr     string
	project  string
	compiler string
	store    state.Store
	logger   *slog.Logger
	notifier *notifier.Notifier[status.Status]
}

// Config holds configuration for the status server.
type Config struct {
	Addr     string // listen address, e.g. "localhost:7420"
	Project  string
	Compiler string // "name version" shown on the page
	Store    state.Store
	Logger   *slog.Logger
}

// NewServer creates a new status server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:     cfg.Addr,
		project:  cfg.Project,
		compiler: cfg.Compiler,
		store:    cfg.Store,
		logger:   logger,
		notifier: notifier.New[status.Status](),
	}
}

// Publish pushes the outcome of one emit to connected pages.
func (s *Server) Publish(res *emit.Result, err error) {
	s.notifier.Publish(status.FromResult(s.project, s.compiler, res, err))
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.Compress(5),
	)
	router.SetupRoutes(r, s.project, s.store, s.notifier)
	return r
}

// Serve listens on the configured address and blocks until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serveListener(ctx, ln)
}

func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("serving emit status", "addr", "http://"+ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down status server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
