package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	ggrpc "google.golang.org/grpc"

	apihttp "github.com/ManiVaultStudio/JupyterPlugin/internal/api/http"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/api/middleware"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/domain/kernel"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/grpc"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/config"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/logging"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/monitoring"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/tracing"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/provisioning"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	manager *kernel.AttachmentManager
	health  *grpc.HealthServer
	watcher *connection.Watcher
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	// ctx scopes background work started by Run; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	path := cfg.Attach.ConnectionFile
	logger.Info("Initializing Jupyter attach server",
		zap.String("port", cfg.Server.Port),
		zap.String("connection_file", path),
		zap.String("grpc_health_addr", cfg.GRPC.HealthAddr),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("jupyter-attach", logger.Component("tracing"))

	registry := kernel.NewRegistry(
		provisioning.ExistingFactory(path, logger.Component("provisioning")),
		logger.Component("registry"),
	)
	manager := kernel.NewAttachmentManager(registry, path, logger.Component("kernel")).WithMetrics(metrics)

	var health *grpc.HealthServer
	if cfg.GRPC.HealthAddr != "" {
		health = grpc.NewHealthServer(logger.Component("grpc"),
			ggrpc.ChainUnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)))
		manager.OnAttach(func(kernel.Snapshot) { health.MarkAttached() })
	}

	var watcher *connection.Watcher
	if cfg.Attach.WatchConnectionFile {
		baseline, err := connection.Parse(path)
		if err != nil && !errors.Is(err, connection.ErrFileNotFound) {
			logger.Warn("Connection file is not valid yet", zap.Error(err))
		}
		watcher, err = connection.NewWatcher(path, baseline, logger.Component("watcher"),
			func(connection.Descriptor) { metrics.IncDescriptorDrift() })
		if err != nil {
			logger.Warn("Connection file watching disabled", zap.Error(err))
			watcher = nil
		}
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(rl))
		} else {
			router.Use(middleware.RateLimit(rl))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:     ctx,
		cancel:  cancel,
		router:  router,
		manager: manager,
		health:  health,
		watcher: watcher,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	// Register routes
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	apihttp.NewHandlers(manager, logger.Component("http")).
		WithDefaultKernelName(cfg.Attach.KernelName).
		Register(router)

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Manager returns the kernel manager behind the HTTP surface.
func (s *Server) Manager() *kernel.AttachmentManager { return s.manager }

// Logger returns the server's root logger.
func (s *Server) Logger() *logging.Logger { return s.logger }

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *monitoring.Metrics { return s.metrics }

// Run starts the watcher and the gRPC health server, then serves HTTP until
// Close is called or a listener fails. Run and Close may be called from
// different goroutines.
func (s *Server) Run() error {
	if s.watcher != nil && s.ctx.Err() == nil {
		if err := s.watcher.Start(s.ctx); err != nil {
			s.logger.Warn("Failed to watch connection file", zap.Error(err))
		}
	}

	errChan := make(chan error, 2)
	if s.health != nil {
		go func() {
			if err := s.health.ListenAndServe(s.config.GRPC.HealthAddr); err != nil {
				errChan <- err
			}
		}()
	}

	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
			return
		}
		errChan <- nil
	}()

	return <-errChan
}

// Close gracefully shuts down the server. Attached kernels are left running:
// they belong to the host application.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.cancel()
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("Failed to stop connection file watcher", zap.Error(err))
		}
	}
	if s.health != nil {
		s.health.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		err = fmt.Errorf("failed to shut down http server: %w", err)
	}

	stats := s.manager.Stats()
	s.logger.Info("Detached from external kernel",
		zap.Int("kernels", stats.Total),
	)

	// Sync logger before exit
	s.logger.Sync()
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"connection_file": s.config.Attach.ConnectionFile,
		"kernels":         s.manager.Stats(),
		"metrics":         s.metrics.Snapshot(),
	})
}
