// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Command stagecms runs the versioned content store and its preview sync
// channel as an HTTP service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stagecms/stagecms/internal/cache"
	"github.com/stagecms/stagecms/internal/config"
	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/handler"
	"github.com/stagecms/stagecms/internal/logging"
	"github.com/stagecms/stagecms/internal/middleware"
	"github.com/stagecms/stagecms/internal/preview"
	"github.com/stagecms/stagecms/internal/scheduler"
	"github.com/stagecms/stagecms/internal/service"
	"github.com/stagecms/stagecms/internal/store"
	"github.com/stagecms/stagecms/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "StageCMS - versioned content store with live preview\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STAGECMS_DB_PATH                SQLite database path (default: ./data/stagecms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STAGECMS_SERVER_PORT            Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STAGECMS_ENV                    Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STAGECMS_REDIS_URL              Redis URL for cache and cross-process preview sync (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STAGECMS_PREVIEW_POLL_INTERVAL  Version token poll cadence (default: 1s)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("stagecms %s (commit: %s, built: %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	st := store.New(db)

	// Upgrade logger to also write WARN and ERROR logs to the audit event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, st))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	events := service.NewEventService(st, logger)

	// Published-page cache: Redis when configured, in-process memory otherwise
	var backend cache.Cache
	if cfg.UseRedis() {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: cfg.CacheTTLDuration(),
		})
		if err != nil {
			slog.Warn("redis unavailable, falling back to memory cache", "error", err)
			backend = cache.NewMemoryCache(cfg.CacheTTLDuration())
		} else {
			slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
			backend = redisCache
		}
	} else {
		slog.Info("cache initialized", "backend", "memory")
		backend = cache.NewMemoryCache(cfg.CacheTTLDuration())
	}
	defer func() { _ = backend.Close() }()
	pages := cache.NewPageCache(backend, st, cfg.CacheTTLDuration())

	registry := content.NewRegistry()
	slog.Info("content registry loaded", "pages", registry.Slugs())

	// Preview sync channel: local bus and WebSocket hub always; a token
	// poller per page as the transport of last resort, so writes that
	// bypass the channel still reach subscribers within one poll interval;
	// Redis bridge when configured so signals cross process boundaries.
	hub := preview.NewHub(logger)
	transports := []preview.Transport{preview.NewLocalBus(), hub}
	for _, slug := range registry.Slugs() {
		transports = append(transports, preview.NewTokenPoller(st, slug, cfg.PollInterval, logger))
	}
	if cfg.UseRedis() {
		bridge, err := preview.NewRedisBridge(cfg.RedisURL, preview.DefaultRedisChannel, logger)
		if err != nil {
			slog.Warn("redis preview bridge unavailable", "error", err)
		} else {
			transports = append(transports, bridge)
			slog.Info("preview redis bridge enabled", "channel", preview.DefaultRedisChannel)
		}
	}
	channel := preview.NewChannel(logger, transports...)
	defer func() { _ = channel.Close() }()

	// Scheduler: daily audit log pruning
	sched := scheduler.New(events, time.Duration(cfg.EventRetentionDays)*24*time.Hour, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP surface
	writeLimiter := middleware.NewWriteRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	api := handler.NewHandler(st, registry, pages, channel, events, logger)
	router := handler.Routes(api, handler.NewHealthHandler(db), hub, writeLimiter)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
