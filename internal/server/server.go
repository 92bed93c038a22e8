package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/experiment-server/internal/middleware"
	"github.com/iliyamo/experiment-server/internal/router"
)

// ShutdownTimeout bounds how long in-flight requests may drain on stop.
const ShutdownTimeout = 5 * time.Second

// Config holds what the server needs beyond the route table.
type Config struct {
	Addr string
	// OnStartFailure is called when the listener cannot be bound.
	OnStartFailure func(err error)
	// OnStarted is called with the bound address once the server accepts connections.
	OnStarted func(addr net.Addr)
}

type Server struct {
	config Config
	echo   *echo.Echo
	server *http.Server
	logger *slog.Logger
}

// NewEcho builds the echo instance with the ambient middleware and the route table.
func NewEcho(deps *router.Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(logger))
	router.RegisterRoutes(e, deps)
	return e
}

func New(config Config, deps *router.Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := NewEcho(deps)
	return &Server{
		config: config,
		echo:   e,
		logger: logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           e,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start binds the listener, serves until ctx is cancelled and then shuts down
// gracefully.  A bind failure is the only error that aborts startup.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		err = fmt.Errorf("listen %s: %w", s.config.Addr, err)
		s.logger.Error("server couldn't start", "error", err)
		if s.config.OnStartFailure != nil {
			s.config.OnStartFailure(err)
		}
		return err
	}
	s.logger.Info("server started listening", "addr", ln.Addr().String())
	if s.config.OnStarted != nil {
		s.config.OnStarted(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("http server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server shutdown signal")
	if err := s.Stop(context.Background()); err != nil {
		s.logger.Error("server shutdown error", "error", err)
		return err
	}
	return nil
}

// Stop drains in-flight requests for at most ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
