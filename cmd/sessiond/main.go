// Command sessiond serves the session API backed by Redis and a SQLite
// users table.
//
// Configuration comes from an optional TOML file (-config) overlaid with
// REDIS_URL, SECRET_KEY, PORT, APP_ENV and DATABASE_DSN. Editing store.url
// in the file moves the process to the new Redis without a restart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/users"
)

func main() {
	configPath := flag.String("config", "", "path to sessiond.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sessiond: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := users.Open(cfg.DSN)
	if err != nil {
		return fmt.Errorf("open users database: %w", err)
	}
	defer db.Close()
	if err := users.CreateSchema(ctx, db); err != nil {
		return err
	}

	store := session.NewClient(cfg.Engine.Store.URL, session.Options{
		KeyPrefix: cfg.Engine.Store.KeyPrefix,
		OpTimeout: cfg.Engine.Store.OpTimeout,
	})
	defer store.Close()

	dir := users.NewDirectory(db)
	engine, err := goSession.New().
		WithConfig(cfg.Engine).
		WithStore(store).
		WithUserLookup(dir).
		WithAccountCreator(dir).
		WithLogger(logger.With("component", "engine")).
		Build()
	if err != nil {
		return err
	}

	if configPath != "" {
		rl := &reloader{path: configPath, getenv: os.Getenv, store: store, logger: logger.With("component", "config")}
		if err := rl.watch(ctx); err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.New(engine, httpapi.WithLogger(logger.With("component", "http"))).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
