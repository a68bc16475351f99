// Package main is the entry point of the blog admin console.
//
// Everything is wired here, in order:
//  1. Config
//  2. Logger and tracing
//  3. Storage (session database)
//  4. Backend client, cache, change feed, mailer
//  5. Services
//  6. Handlers and middleware
//  7. HTTP router and CORS
//  8. HTTP server
//  9. Graceful shutdown
//
// No globals: every dependency is built in newApp and passed down.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/handlers"
	"github.com/osmium/blog-admin/middleware"
	"github.com/osmium/blog-admin/pkg/broker"
	"github.com/osmium/blog-admin/pkg/cache"
	"github.com/osmium/blog-admin/pkg/email"
	"github.com/osmium/blog-admin/pkg/logger"
	"github.com/osmium/blog-admin/pkg/ratelimit"
	"github.com/osmium/blog-admin/pkg/telemetry"
	"github.com/osmium/blog-admin/services"
	"github.com/osmium/blog-admin/ws"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const sweepInterval = 10 * time.Minute

// app is the wired console, minus the listener.
type app struct {
	handler  http.Handler
	hub      *ws.Hub
	repos    *Repositories
	cache    cache.Cache
	nats     *broker.NATS
	limiter  *ratelimit.LoginRateLimiter
	sessions services.SessionStore
	logger   *zap.Logger
}

func main() {
	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// ─── 2. Logger and tracing ───
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, version, cfg.Telemetry.Endpoint)
	if err != nil {
		zl.Fatal("failed to init tracer", zap.Error(err))
	}

	// ─── 3..7 ───
	a, err := newApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to start console", zap.Error(err))
	}

	// ─── 8. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go a.sweepSessions(sweepCtx, sweepInterval)

	// ─── 9. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		zl.Info("console listening",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	zl.Info("shutting down")
	stopSweep()

	// WebSocket clients first, so they see the close frame; then stop taking
	// requests and let in-flight ones finish.
	a.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}

	a.close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		zl.Warn("tracer shutdown failed", zap.Error(err))
	}
	zl.Info("console stopped")
}

// newApp builds every layer and returns the root handler.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	// ─── 3. Storage ───
	repos, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// ─── 4. Infrastructure ───
	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	c := cache.New(cache.Options{
		DefaultTTL:      cfg.Cache.TTL,
		CleanupInterval: time.Minute,
		RedisAddr:       cfg.Redis.Addr,
		RedisPassword:   cfg.Redis.Password,
		RedisDB:         cfg.Redis.DB,
		KeyPrefix:       "blogadmin:",
	})

	hub := ws.NewHub(logger)
	go hub.Run()

	origin := uuid.NewString()
	nc, err := connectBroker(cfg, origin, logger)
	if err != nil {
		hub.Shutdown()
		_ = c.Close()
		repos.DB.Close()
		return nil, err
	}
	// A nil *broker.NATS inside the interface would not compare equal to nil.
	var publisher broker.Publisher
	if nc != nil {
		publisher = nc
	}

	var mailer email.Sender = email.NopSender{}
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.SiteName)
	} else {
		logger.Info("RESEND_API_KEY not set, decision emails are disabled")
	}

	a := &app{
		hub:    hub,
		repos:  repos,
		cache:  c,
		nats:   nc,
		logger: logger,
	}

	// ─── 5. Services ───
	svcs, err := initServices(cfg, serviceDeps{
		repos:     repos,
		client:    client,
		cache:     c,
		hub:       hub,
		publisher: publisher,
		origin:    origin,
		mailer:    mailer,
	}, logger)
	if err != nil {
		hub.Shutdown()
		a.close()
		return nil, err
	}
	a.sessions = svcs.Sessions

	if err := registerRelay(nc, svcs.Notifier); err != nil {
		hub.Shutdown()
		a.close()
		return nil, err
	}

	// ─── 6. Handlers and middleware ───
	clientIP, err := ratelimit.NewIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		hub.Shutdown()
		a.close()
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	a.limiter = ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow)
	cookie := handlers.SessionCookie{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	}
	h := initHandlers(cfg, svcs, hub, cookie, a.limiter, clientIP, logger)
	authMw := middleware.NewAuthMiddleware(svcs.Gate, cookie, logger)

	// ─── 7. Router and CORS ───
	mux := http.NewServeMux()
	initRoutes(mux, h, authMw, cfg.Server.BasePath)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	a.handler = middleware.RequestLogger(logger)(corsHandler.Handler(mux))

	return a, nil
}

// sweepSessions deletes expired session slots until ctx ends.
func (a *app) sweepSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.Sweep(ctx)
			if err != nil {
				a.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.logger.Debug("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

// close releases everything newApp opened except the hub.
func (a *app) close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.nats != nil {
		a.nats.Close()
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close failed", zap.Error(err))
	}
	if err := a.repos.DB.Close(); err != nil {
		a.logger.Warn("database close failed", zap.Error(err))
	}
}
