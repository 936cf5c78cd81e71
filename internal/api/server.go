// Package api provides the HTTP REST API and WebSocket server for EcoRent.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/qrqwqeqt/GoF-Patt/internal/audit"
	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/config"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/logging"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/mqtt"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// RequestMetrics records the outcome of each HTTP request.
// Implemented by *influxdb.Client.
type RequestMetrics interface {
	WriteHTTPRequest(method, route string, status int, duration time.Duration)
}

// HealthChecker is a dependency checked by GET /api/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Devices config.DevicesConfig
	Logger  *logging.Logger

	DeviceService *device.Service
	Accounts      *auth.Service
	Tokens        *auth.TokenIssuer

	AuditRepo audit.Repository   // optional: serves GET /api/audit
	Images    objectstore.Reader // optional: serves GET /api/images/{key}
	Metrics   RequestMetrics     // optional: per-request timings
	MQTT      *mqtt.Client       // optional: reported by /api/metrics
	DB        *sql.DB            // optional: pool stats for /api/metrics

	// Health lists named dependencies checked by GET /api/health.
	Health map[string]HealthChecker

	// Hub, if set, is used instead of a server-owned hub. The caller runs it.
	Hub *Hub

	Version string
}

// Server is the HTTP API server for EcoRent.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	devCfg    config.DevicesConfig
	logger    *logging.Logger
	devices   *device.Service
	accounts  *auth.Service
	tokens    *auth.TokenIssuer
	auditRepo audit.Repository
	images    objectstore.Reader
	metrics   RequestMetrics
	mqtt      *mqtt.Client
	db        *sql.DB
	health    map[string]HealthChecker
	version   string
	startTime time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, services, token issuer)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DeviceService == nil {
		return nil, fmt.Errorf("device service is required")
	}
	if deps.Accounts == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("account service and token issuer are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		devCfg:    deps.Devices,
		logger:    deps.Logger,
		devices:   deps.DeviceService,
		accounts:  deps.Accounts,
		tokens:    deps.Tokens,
		auditRepo: deps.AuditRepo,
		images:    deps.Images,
		metrics:   deps.Metrics,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}

	return s, nil
}

// Hub returns the WebSocket hub so it can be registered as a device event handler.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub (unless injected) and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for background goroutines
//
// Returns:
//   - error: Currently always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
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

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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
