package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/feedline-core/internal/auth"
	"github.com/nerrad567/feedline-core/internal/hub"
	"github.com/nerrad567/feedline-core/internal/infrastructure/config"
	"github.com/nerrad567/feedline-core/internal/infrastructure/logging"
	"github.com/nerrad567/feedline-core/internal/resource"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Uploads   config.UploadsConfig
	Logger    *logging.Logger
	DB        HealthChecker
	Users     auth.UserRepository
	Tokens    *auth.TokenIssuer
	Resources *resource.Service
	Hub       *hub.Hub
	Version   string
}

// Server is the HTTP API server for Feedline Core.
//
// It owns the HTTP listener, routes, middleware and the WebSocket ticket
// store. The notification hub is injected and run by the caller.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	uploads   config.UploadsConfig
	logger    *logging.Logger
	db        HealthChecker
	users     auth.UserRepository
	tokens    *auth.TokenIssuer
	resources *resource.Service
	hub       *hub.Hub
	version   string

	tickets *ticketStore
	limiter *ipLimiter
	metrics *httpMetrics

	server *http.Server
	cancel context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if deps.Resources == nil {
		return nil, fmt.Errorf("resource service is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("notification hub is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		uploads:   deps.Uploads,
		logger:    deps.Logger,
		db:        deps.DB,
		users:     deps.Users,
		tokens:    deps.Tokens,
		resources: deps.Resources,
		hub:       deps.Hub,
		version:   deps.Version,
		tickets:   newTicketStore(),
		limiter:   newIPLimiter(deps.Security.RateLimit),
		metrics:   newHTTPMetrics(deps.Hub.Collectors()...),
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It launches ticket and rate-limiter housekeeping and the HTTP listener in
// background goroutines. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.cleanTicketsLoop(srvCtx)
	go s.limiter.sweepLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections. Hijacked WebSocket
// connections are not tracked here; the hub closes them.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and its store is reachable.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api health check: %w", err)
		}
	}

	return nil
}
