package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/rate"
	"github.com/MrEthical07/goAdmin/metrics/export/prometheus"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/MrEthical07/goAdmin/router"
	"go.uber.org/zap"
)

// Server is the admin console backend.
type Server struct {
	cfg     *Config
	logger  *zap.Logger
	backend *Backend
	engine  *goAdmin.Engine
	guard   *router.Guard
	limiter *rate.Limiter
	handler http.Handler
}

// New opens storage, builds the engine and guard, and assembles the routes.
// A nil logger is replaced by a no-op logger.
func New(ctx context.Context, cfg *Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	backend, err := OpenBackend(ctx, cfg.Storage, cfg.Session)
	if err != nil {
		return nil, err
	}

	builder := goAdmin.New().
		WithConfig(engineCfg).
		WithStorage(backend.Store).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(goAdmin.NewZapSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		engine.Close()
		_ = backend.Close()
		return nil, err
	}
	guardCfg := router.DefaultGuardConfig()
	guardCfg.TitleSuffix = cfg.Guard.TitleSuffix
	guardCfg.Recorder = engine
	guard, err := router.NewGuard(table, middleware.TokenAuthenticator(engine), guardCfg)
	if err != nil {
		engine.Close()
		_ = backend.Close()
		return nil, err
	}

	for _, w := range engine.SecurityReport().Warnings.AtLeast(goAdmin.LintWarn) {
		logger.Warn("config lint", zap.String("code", w.Code), zap.String("severity", w.Severity.String()), zap.String("detail", w.Message))
	}

	if err := engine.Hydrate(ctx); err != nil {
		logger.Warn("session hydrate failed", zap.Error(err))
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		engine:  engine,
		guard:   guard,
	}
	if cfg.Throttle.Enabled {
		if backend.Redis == nil {
			logger.Info("login throttle needs a redis backend; disabled", zap.String("storage", backend.Name))
		} else {
			s.limiter, err = rate.New(backend.Redis, rate.Config{
				Prefix:      cfg.Session.Prefix + ":" + cfg.Session.Namespace,
				MaxAttempts: cfg.Throttle.MaxAttempts,
				Window:      cfg.Throttle.Window,
				PerIP:       cfg.Throttle.PerIP,
			})
			if err != nil {
				engine.Close()
				_ = backend.Close()
				return nil, err
			}
		}
	}
	s.handler = s.routes()

	logger.Info("server ready",
		zap.String("storage", backend.Name),
		zap.String("namespace", cfg.Session.Namespace),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("throttle", s.limiter != nil),
	)
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireSession(s.engine)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.Handle("POST /api/autologin", auth(http.HandlerFunc(s.handleAutoLogin)))
	mux.Handle("GET /api/remembered", auth(http.HandlerFunc(s.handleRemembered)))
	mux.Handle("PUT /api/password", auth(http.HandlerFunc(s.handlePassword)))
	mux.Handle("GET /api/session", auth(http.HandlerFunc(s.handleSession)))
	mux.Handle("PUT /api/profile", auth(http.HandlerFunc(s.handleProfile)))
	mux.Handle("GET /api/users", auth(http.HandlerFunc(s.handleUsers)))

	if s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, prometheus.New(s.engine).Handler())
	}

	mux.Handle("GET /", middleware.Navigate(s.guard)(http.HandlerFunc(s.handlePage)))

	return middleware.ClientIP(s.logRequests(mux))
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Engine returns the session engine.
func (s *Server) Engine() *goAdmin.Engine { return s.engine }

// Guard returns the navigation guard.
func (s *Server) Guard() *router.Guard { return s.guard }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the engine's audit dispatcher and releases storage.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.engine.Close()
	return s.backend.Close()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
