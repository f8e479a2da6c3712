package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ayush/potty-buddy/backend/internal/auth"
	"github.com/ayush/potty-buddy/backend/internal/config"
	"github.com/ayush/potty-buddy/backend/internal/events"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/server"
	"github.com/ayush/potty-buddy/backend/internal/store"
)

// appStore is what both services need from a storage backend.
type appStore interface {
	auth.UserStore
	events.EventStore
	server.Pinger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "potty-buddy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting", "config", cfg.String())

	// ── Storage ──────────────────────────────────────────────
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Redis (optional) ─────────────────────────────────────
	var throttle auth.Throttle
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		throttle = auth.NewRedisThrottle(rdb, cfg.LoginMaxAttempts, cfg.LoginLockoutWindow)
		logger.Info(ctx, "login throttle enabled", "max_attempts", cfg.LoginMaxAttempts, "window", cfg.LoginLockoutWindow)
	}

	// ── Services & handlers ──────────────────────────────────
	authSvc := auth.NewService(st, auth.NewBcryptHasher(cfg.BcryptCost), throttle, logger)
	eventSvc := events.NewService(st, cfg.StatsTZ, logger)

	handler := server.NewRouter(server.Deps{
		Users:       auth.NewHandler(authSvc, logger),
		Events:      events.NewHandler(eventSvc, logger),
		Store:       st,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (appStore, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		s, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		pool, err := store.OpenPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		if err := store.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgresStore(pool), pool.Close, nil
	}
}
