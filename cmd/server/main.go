package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvdml/internal/archive"
	"github.com/JonMunkholm/csvdml/internal/cache"
	"github.com/JonMunkholm/csvdml/internal/config"
	"github.com/JonMunkholm/csvdml/internal/core"
	"github.com/JonMunkholm/csvdml/internal/history"
	"github.com/JonMunkholm/csvdml/internal/logging"
	"github.com/JonMunkholm/csvdml/internal/verify"
	"github.com/JonMunkholm/csvdml/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	flushLogs := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.SeqURL)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		flushLogs()
		os.Exit(1)
	}
	flushLogs()
}

func run(cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_db", cfg.Database.Enabled(),
		"cache", cfg.Cache.Enabled(),
		"archive", cfg.Archive.Enabled(),
	)

	ctx := context.Background()
	deps := core.Deps{Verifier: verify.New()}

	// History: PostgreSQL when configured, otherwise an in-memory ring
	if cfg.Database.Enabled() {
		db, err := history.Open(ctx, history.DBConfig{
			DSN:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		store := history.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.History = store
		slog.Info("connected to history database", "name", databaseName(cfg.Database.URL))
	} else {
		deps.History = history.NewMemoryStore(cfg.History.MemorySize)
	}

	if cfg.Cache.Enabled() {
		rc, err := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		deps.Cache = rc
		slog.Info("result cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
	}

	if cfg.Archive.Enabled() {
		store, err := archive.NewS3Store(ctx, archive.S3Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKey,
			SecretAccessKey:  cfg.Archive.SecretKey,
			UseSSL:           cfg.Archive.UseSSL,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			return err
		}
		deps.Archive = archive.NewArchiver(store, cfg.Archive.Prefix)
		slog.Info("output archive enabled", "endpoint", cfg.Archive.Endpoint, "bucket", cfg.Archive.Bucket)
	}

	service := core.NewService(core.ServiceConfig{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		Defaults: core.Options{
			TableName:     cfg.Convert.DefaultTable,
			CaseTransform: core.ParseCaseTransform(cfg.Convert.DefaultCase),
			Dialect:       core.ParseDialect(cfg.Convert.DefaultDialect),
		},
	}, deps)

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for active conversions to complete (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
			if err := service.WaitForConversions(shutdownCtx); err != nil {
				slog.Warn("conversions did not complete in time", "error", err)
			} else {
				slog.Info("all conversions completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	slog.Info("server stopped")
	return nil
}

// databaseName returns the database part of a connection URL for logging.
func databaseName(dsn string) string {
	if u, err := url.Parse(dsn); err == nil {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}
