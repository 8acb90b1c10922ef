// Package server is the composition root: it opens the stores, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → sqlstore.DB            (users, videos)
//	  → redis client           (optional, session revocation)
//	  → service.AuthService, service.VideoService
//	  → auth.SessionManager, auth.AdminPolicy
//	  → handler.*              → routes
//
// Nothing below this package knows how the others are constructed.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/sakif/video-catalog/internal/auth"
	"github.com/sakif/video-catalog/internal/config"
	"github.com/sakif/video-catalog/internal/handler"
	"github.com/sakif/video-catalog/internal/middleware"
	"github.com/sakif/video-catalog/internal/repository/sqlstore"
	"github.com/sakif/video-catalog/internal/service"
	"github.com/sakif/video-catalog/web"
)

// Server owns the router and every long-lived connection.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlstore.DB
	redis  *redisv9.Client // nil when REDIS_ADDR is unset
}

// New connects to the stores and wires the routes. The caller must call
// Close (Start does it on return) to release the connections.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Redis.Addr != "" {
		client, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.redis = client
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func newRedisClient(ctx context.Context, rc config.RedisConfig) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", rc.Addr, err)
	}
	return client, nil
}

// sessionSecret returns the configured secret, or a random one when none is
// set. A random secret means every restart signs everybody out.
func (s *Server) sessionSecret() (string, error) {
	if s.cfg.Session.Secret != "" {
		return s.cfg.Session.Secret, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	s.logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	return hex.EncodeToString(b), nil
}

// setupRoutes mounts every route.
//
//	GET  /                    landing page
//	POST /login               sign in
//	POST /register            create account and sign in
//	GET  /logout              sign out
//	GET  /dashboard           catalog           (session)
//	POST /add_video           add a video       (admin)
//	POST /delete_video/{id}   delete a video    (admin)
//	GET  /admin_users         user roster       (admin)
//	GET  /healthz             store liveness
//	GET  /static/*            stylesheet
//
// Middleware order: request id first so every later log line can carry it,
// recoverer inside the logger so a panic is logged as a 500, and the session
// loader last so handlers and guards can read the identity.
func (s *Server) setupRoutes() error {
	secret, err := s.sessionSecret()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(secret, s.cfg.SessionTTL())
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var revoker auth.Revoker = auth.NopRevoker{}
	healthChecks := []handler.HealthCheck{{Name: "database", Ping: s.db.Ping}}
	if s.redis != nil {
		rr := auth.NewRedisRevoker(s.redis)
		revoker = rr
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "redis", Ping: rr.Ping})
	}

	sessions := auth.NewSessionManager(tokens, revoker, s.cfg.Session.CookieName, s.cfg.Session.CookieSecure)
	policy := auth.NewAdminPolicy(s.cfg.AdminUsernames())

	accounts := service.NewAuthService(s.db.Users(), auth.NewPasswordService(s.cfg.Auth.BcryptCost), s.logger)
	catalog := service.NewVideoService(s.db.Videos(), s.logger)

	renderer, err := handler.NewRenderer(web.FS, s.logger)
	if err != nil {
		return err
	}
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening embedded static files: %w", err)
	}

	pages := handler.NewPageHandler(renderer, catalog, accounts, s.logger)
	authHandler := handler.NewAuthHandler(accounts, sessions, renderer, s.logger)
	videos := handler.NewVideoHandler(catalog, s.logger)
	health := handler.NewHealthHandler(s.logger, healthChecks...)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", health.HandleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(auth.LoadSession(sessions, policy, s.logger))

		r.Get("/", pages.HandleLanding)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)
			r.Get("/dashboard", pages.HandleDashboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/add_video", videos.HandleAdd)
			r.Post("/delete_video/{id}", videos.HandleDelete)
			r.Get("/admin_users", pages.HandleAdminUsers)
		})
	})

	return nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and Redis connections.
func (s *Server) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the stores.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("env", s.cfg.App.Env),
			slog.String("database", s.db.Driver()),
			slog.Bool("redis", s.redis != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
