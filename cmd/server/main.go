// main is the entry point for the SkillSwap API server.
//
// It reads configuration from the environment, opens the database,
// registers all HTTP routes, and serves until SIGINT/SIGTERM.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — how this file fits into the project
// ────────────────────────────────────────────────────────────────────
// This file is the "composition root" — the single place where all the
// independent packages (db, store, handlers, middleware, realtime) are
// wired together. Keeping this wiring in main.go means every other
// package stays easy to test in isolation (they never import each other
// in a circle).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Elizabethomito/skillswap/backend/internal/config"
	"github.com/Elizabethomito/skillswap/backend/internal/db"
	"github.com/Elizabethomito/skillswap/backend/internal/handlers"
	"github.com/Elizabethomito/skillswap/backend/internal/logging"
	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/realtime"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
	"github.com/Elizabethomito/skillswap/backend/internal/validate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "skillswap: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Configuration ────────────────────────────────────────────────
	// Read settings from the environment so the same binary can be used
	// in development, CI, and production without recompiling.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────
	// db.Open pings the database and runs all CREATE TABLE IF NOT EXISTS
	// migrations for the configured driver.
	database, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	// ── Handlers ─────────────────────────────────────────────────────
	srv := &handlers.Server{
		Store:     store.New(database),
		Secret:    cfg.JWTSecret,
		Validator: validate.New(),
		Hub:       realtime.NewHub(logger, cfg.CORSOrigin),
		Logger:    logger,
		Dev:       cfg.IsDevelopment(),
	}

	// ── Metrics ──────────────────────────────────────────────────────
	// A private registry keeps /metrics to what this process exports.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)
	limiter.StartCleanup(time.Minute, ctx.Done())

	mux := routes(srv, cfg, limiter)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Outermost first: Recover must see panics from everything below it,
	// and RequestLogger must see the final status code.
	handler := middleware.Recover(logger)(
		middleware.RequestLogger(logger)(
			metrics.Handler(
				middleware.CORS(cfg.CORSOrigin)(mux))))

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// WriteTimeout is left unset: websocket connections outlive any
		// sensible per-response deadline.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SkillSwap API listening",
			slog.String("addr", cfg.Addr),
			slog.String("env", cfg.Env),
			slog.String("db_driver", cfg.DBDriver))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// routes registers every API endpoint on a fresh ServeMux.
//
// Go 1.22+ ServeMux supports method prefixes ("GET /path") and path
// wildcards ("{id}") natively — no third-party router needed.
func routes(srv *handlers.Server, cfg config.Config, limiter *middleware.RateLimiter) *http.ServeMux {
	mux := http.NewServeMux()

	// ── Middleware helpers ────────────────────────────────────────────
	// Chaining them: auth(onlyAdmin(handler)) means:
	//   1. Authenticate runs first  → sets user_id/role in context
	//   2. RequireRole runs second  → allows or rejects based on role
	//   3. handler runs last        → does the actual work
	auth := middleware.Authenticate(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuthenticate(cfg.JWTSecret)
	onlyAdmin := middleware.RequireRole("admin")

	// Public routes. Signup and login are rate limited per client address.
	mux.HandleFunc("GET /api/health", srv.Health)
	mux.Handle("POST /api/auth/signup", limiter.Handler(http.HandlerFunc(srv.Signup)))
	mux.Handle("POST /api/auth/login", limiter.Handler(http.HandlerFunc(srv.Login)))
	// The websocket handshake authenticates itself from ?token=.
	mux.HandleFunc("GET /api/ws", srv.ServeWS)

	// Directory — anonymous callers allowed, but a token hides the caller
	// from search and lets them see their own full profile.
	mux.Handle("GET /api/users", optionalAuth(http.HandlerFunc(srv.SearchUsers)))
	mux.Handle("GET /api/users/{id}", optionalAuth(http.HandlerFunc(srv.GetUserProfile)))

	// Authenticated — any logged-in user.
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(srv.Me)))
	mux.Handle("PUT /api/users/profile", auth(http.HandlerFunc(srv.UpdateProfile)))
	mux.Handle("PUT /api/users/profile/setup", auth(http.HandlerFunc(srv.SetupProfile)))
	mux.Handle("POST /api/users/skills/{list}", auth(http.HandlerFunc(srv.AddSkill)))
	mux.Handle("DELETE /api/users/skills/{list}/{index}", auth(http.HandlerFunc(srv.RemoveSkill)))

	mux.Handle("POST /api/requests", auth(http.HandlerFunc(srv.CreateRequest)))
	mux.Handle("GET /api/requests", auth(http.HandlerFunc(srv.ListRequests)))
	mux.Handle("GET /api/requests/{id}", auth(http.HandlerFunc(srv.GetRequest)))
	mux.Handle("PUT /api/requests/{id}/accept", auth(http.HandlerFunc(srv.AcceptRequest)))
	mux.Handle("PUT /api/requests/{id}/reject", auth(http.HandlerFunc(srv.RejectRequest)))
	mux.Handle("DELETE /api/requests/{id}", auth(http.HandlerFunc(srv.DeleteRequest)))

	mux.Handle("GET /api/conversations", auth(http.HandlerFunc(srv.ListConversations)))
	mux.Handle("POST /api/conversations", auth(http.HandlerFunc(srv.CreateConversation)))
	mux.Handle("GET /api/conversations/{id}", auth(http.HandlerFunc(srv.GetConversation)))
	mux.Handle("POST /api/conversations/{id}/messages", auth(http.HandlerFunc(srv.SendMessage)))
	mux.Handle("PUT /api/conversations/{id}/read", auth(http.HandlerFunc(srv.MarkConversationRead)))

	// Admin-only routes.
	mux.Handle("GET /api/admin/stats", auth(onlyAdmin(http.HandlerFunc(srv.AdminStats))))
	mux.Handle("GET /api/admin/users", auth(onlyAdmin(http.HandlerFunc(srv.AdminListUsers))))
	mux.Handle("PUT /api/admin/users/{id}/status", auth(onlyAdmin(http.HandlerFunc(srv.AdminSetUserStatus))))
	mux.Handle("PUT /api/admin/users/{id}/skills/{index}/approve", auth(onlyAdmin(http.HandlerFunc(srv.AdminApproveSkill))))
	mux.Handle("GET /api/admin/requests", auth(onlyAdmin(http.HandlerFunc(srv.AdminListRequests))))

	// Demo seed — idempotent fixture data. Never registered in production.
	if cfg.IsDevelopment() {
		mux.HandleFunc("POST /api/admin/seed", srv.SeedDemo)
	}

	return mux
}
