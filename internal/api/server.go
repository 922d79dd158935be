package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atrium-ops/atrium-core/internal/audit"
	"github.com/atrium-ops/atrium-core/internal/auth"
	"github.com/atrium-ops/atrium-core/internal/directory"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/config"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-ops/atrium-core/internal/rbac"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Manager  *auth.Manager
	Issuer   *auth.TokenIssuer
	Resolver *rbac.Resolver
	Menus    directory.MenuRepository
	Depts    directory.DeptRepository
	Logins   audit.Repository
	Version  string
}

// Server is the HTTP API server for Atrium Core.
//
// It manages the HTTP listener, routes and middleware. The server is created
// with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	manager  *auth.Manager
	issuer   *auth.TokenIssuer
	resolver *rbac.Resolver
	menus    directory.MenuRepository
	depts    directory.DeptRepository
	logins   audit.Repository
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Manager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if deps.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("permission resolver is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		manager:  deps.Manager,
		issuer:   deps.Issuer,
		resolver: deps.Resolver,
		menus:    deps.Menus,
		depts:    deps.Depts,
		logins:   deps.Logins,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
