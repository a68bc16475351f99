// Command devbackend runs the local stand-in for the blog backend, so the
// console can be developed against BACKEND_URL=http://127.0.0.1:5000.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/devbackend"
	"github.com/osmium/blog-admin/pkg/logger"
)

func main() {
	cfg, err := config.LoadDevBackend()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabasePath, devbackend.Migrations(), zl)
	if err != nil {
		zl.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		zl.Fatal("failed to create upload directory", zap.Error(err))
	}

	server := devbackend.NewServer(devbackend.NewStore(db.Conn), devbackend.Options{
		JWTSecret:    cfg.JWTSecret,
		AccessTTL:    cfg.AccessTTL,
		RefreshTTL:   cfg.RefreshTTL,
		CookieSecure: cfg.CookieSecure,
		UploadDir:    cfg.UploadDir,
	}, zl)

	if cfg.AdminEmail != "" {
		if err := server.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			zl.Fatal("failed to seed admin", zap.Error(err))
		}
		zl.Info("admin account ready", zap.String("email", cfg.AdminEmail))
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		zl.Info("dev backend listening", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	zl.Info("dev backend stopped")
}
