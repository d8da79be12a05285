package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"surgerydesk/relay/pkg/chat"
	"surgerydesk/relay/pkg/config"
	"surgerydesk/relay/pkg/limiter"
	"surgerydesk/relay/pkg/proxy/middleware"
	"surgerydesk/relay/pkg/relay"
	"surgerydesk/relay/pkg/screening"
	"surgerydesk/relay/pkg/telemetry/health"
	"surgerydesk/relay/pkg/telemetry/logging"
	"surgerydesk/relay/pkg/telemetry/metrics"
	"surgerydesk/relay/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary on /version and in metrics.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the support chat relay HTTP server.
type Server struct {
	cfg    *config.Config
	info   BuildInfo
	logger *logging.Logger

	registry  *prometheus.Registry
	collector *metrics.Collector
	tracer    *tracing.Tracer
	checker   *health.Checker

	store      limiter.Store
	memStore   *limiter.MemoryStore
	redisStore *limiter.RedisStore
	sweeper    *limiter.Sweeper
	limiter    *limiter.Limiter

	httpClient *http.Client
	relay      *relay.Client
	chat       *chat.Handler
	ws         *chat.WebSocketHandler

	configPath string
	logLevel   string
	watcher    *config.Watcher

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. By default one is built from cfg.Logging.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithBuildInfo sets the version reported on /version.
func WithBuildInfo(info BuildInfo) Option {
	return func(s *Server) {
		s.info = info
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithTracer sets the tracer. By default one is built from cfg.Tracing.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// WithLimiterStore replaces the store selected by cfg.Limiter.Backend.
func WithLimiterStore(store limiter.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithUpstreamClient sets the HTTP client used for upstream calls.
func WithUpstreamClient(hc *http.Client) Option {
	return func(s *Server) {
		s.httpClient = hc
	}
}

// WithConfigWatch reloads the limiter policy and log level whenever the
// file at path changes.
func WithConfigWatch(path string) Option {
	return func(s *Server) {
		s.configPath = path
	}
}

// WithLogLevelOverride pins the log level so that reloads do not replace it.
func WithLogLevelOverride(level string) Option {
	return func(s *Server) {
		s.logLevel = level
	}
}

// New assembles the relay from cfg. It connects to Redis when the redis
// limiter backend is selected.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	s := &Server{
		cfg:  cfg,
		info: BuildInfo{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		logger, err := logging.New(logging.FromConfig(&cfg.Logging))
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}

	if s.tracer == nil {
		t, err := tracing.New(&cfg.Tracing, tracing.WithServiceVersion(s.info.Version))
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		s.tracer = t
	}

	s.collector = metrics.NewCollector(&cfg.Metrics, s.registry)
	s.collector.SetBuildInfo(s.info.Version, s.info.Commit)
	s.checker = health.New(2 * time.Second)

	if err := s.setupLimiter(ctx); err != nil {
		return nil, err
	}
	s.setupRelay()

	return s, nil
}

func (s *Server) setupLimiter(ctx context.Context) error {
	lc := s.cfg.Limiter

	if s.store == nil {
		switch lc.Backend {
		case config.BackendRedis:
			rs, err := limiter.NewRedisStore(ctx, limiter.RedisConfig{
				Addr:      lc.Redis.Addr,
				Password:  lc.Redis.Password,
				DB:        lc.Redis.DB,
				KeyPrefix: lc.Redis.KeyPrefix,
			})
			if err != nil {
				return fmt.Errorf("failed to connect limiter store: %w", err)
			}
			s.store = rs
		default:
			s.store = limiter.NewMemoryStore()
		}
	}

	switch st := s.store.(type) {
	case *limiter.MemoryStore:
		s.memStore = st
		s.sweeper = limiter.NewSweeper(st, lc.SweepSchedule)
		s.sweeper.OnSweep(s.collector.SetTrackedSources)
	case *limiter.RedisStore:
		s.redisStore = st
		var opts []health.CheckOption
		if lc.FailOpen {
			opts = append(opts, health.NonCritical())
		}
		s.checker.RegisterCheck("limiter_store", health.PingCheck(st), opts...)
	}

	s.limiter = limiter.New(s.store, limiter.Config{
		Limit:    lc.Limit,
		Window:   lc.Window,
		FailOpen: lc.FailOpen,
	}, limiter.WithLogger(s.logger.With("component", "limiter")))

	if s.sweeper != nil {
		s.sweeper.UseWindow(func() time.Duration {
			_, window := s.limiter.Policy()
			return window
		})
	}

	return nil
}

func (s *Server) setupRelay() {
	uc := s.cfg.Upstream
	relayCfg := relay.Config{
		URL:     uc.URL,
		APIKey:  uc.APIKey,
		Model:   uc.Model,
		Timeout: uc.Timeout,
	}

	opts := []relay.Option{
		relay.WithLogger(s.logger.With("component", "relay")),
		relay.WithObserver(s.collector),
	}
	if s.httpClient != nil {
		opts = append(opts, relay.WithHTTPClient(s.httpClient))
	}
	s.relay = relay.New(relayCfg, opts...)
	s.checker.RegisterCheck("upstream", health.ConfiguredCheck(relayCfg.Missing))

	s.chat = chat.NewHandler(s.limiter, s.relay, chat.Config{
		MaxBodyBytes:          s.cfg.Server.MaxBodyBytes,
		TrustForwardedHeaders: s.cfg.Server.TrustForwardedHeaders,
	},
		chat.WithRecorder(s.collector),
		chat.WithLogger(s.logger.With("component", "chat")),
	)

	s.ws = s.chat.WebSocket()
	if cors := s.cfg.Server.CORS; cors.Enabled {
		s.ws.AcceptOptions = chat.AcceptOrigins(cors.AllowedOrigins)
	}
}

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	sc := s.cfg.Server
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		IdleTimeout:    sc.IdleTimeout,
		MaxHeaderBytes: sc.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	if s.sweeper != nil {
		if err := s.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start limiter sweeper: %w", err)
		}
	}

	if s.configPath != "" {
		if err := s.startWatcher(ctx); err != nil {
			return err
		}
	}

	s.logStartup(ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

func (s *Server) logStartup(addr string) {
	lc := s.cfg.Limiter
	s.logger.Info("starting support chat relay",
		"address", addr,
		"version", s.info.Version,
		"limiter_backend", lc.Backend,
		"limit", lc.Limit,
		"window", lc.Window.String(),
		"upstream_configured", s.relay.Configured(),
		"model", s.relay.Model(),
	)

	if s.cfg.Server.TrustForwardedHeaders {
		s.logger.Warn("limiter keys come from X-Forwarded-For and X-Real-IP; " +
			"the relay must sit behind a proxy that overwrites those headers")
	}
	for _, w := range s.cfg.Warnings() {
		s.logger.Warn(w)
	}
}

func (s *Server) startWatcher(ctx context.Context) error {
	w, err := config.NewWatcher(s.configPath, config.DefaultDebounceInterval,
		s.logger.With("component", "config.watcher"))
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	s.watcher = w

	go func() {
		if err := w.Watch(ctx, s.Reload); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}

// Reload applies the settings that can change without a restart: the
// limiter policy and the log level.
func (s *Server) Reload(cfg *config.Config) {
	s.limiter.SetPolicy(cfg.Limiter.Limit, cfg.Limiter.Window)

	level := cfg.Logging.Level
	if s.logLevel != "" {
		level = s.logLevel
	}
	if err := s.logger.SetLevel(level); err != nil {
		s.logger.Warn("ignoring log level from reloaded config", "error", err)
	}
	s.logger.Info("configuration reloaded",
		"limit", cfg.Limiter.Limit,
		"window", cfg.Limiter.Window.String(),
		"log_level", level,
	)
}

// Shutdown gracefully shuts down the server and releases the limiter
// store, sweeper, watcher and tracer.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if s.watcher != nil {
			_ = s.watcher.Stop()
		}
		if s.sweeper != nil {
			s.sweeper.Stop()
		}
		if s.redisStore != nil {
			if err := s.redisStore.Close(); err != nil {
				s.logger.Warn("failed to close limiter store", "error", err)
			}
		}
		if err := s.tracer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("failed to flush traces", "error", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("support chat relay stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware(s.logger.Logger))
	r.Use(middleware.RequestIDMiddleware)
	r.Use(tracing.HTTPMiddleware(middleware.RoutePattern))
	r.Use(middleware.LoggingMiddleware(s.logger.Logger))
	r.Use(middleware.MetricsMiddleware(s.collector))
	r.Use(middleware.CORSMiddleware(middleware.CORSFromConfig(s.cfg.Server.CORS)))

	r.Post("/chat", s.chat.ServeHTTP)
	r.Options("/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/chat/ws", s.ws.ServeHTTP)
	r.Method(http.MethodGet, "/screening/rules", screening.RulesHandler())

	r.Get("/health", s.checker.LivenessHandler())
	r.Get("/ready", s.checker.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.info.Version, s.info.Commit, s.info.BuildTime))

	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.collector.Handler())
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"Method not allowed."}`))
	})

	return r
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Limiter returns the request limiter.
func (s *Server) Limiter() *limiter.Limiter {
	return s.limiter
}

// Checker returns the health checker.
func (s *Server) Checker() *health.Checker {
	return s.checker
}
