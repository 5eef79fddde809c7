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

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"imposter-stats/config"
	"imposter-stats/internal/auth"
	"imposter-stats/internal/infrastructure/aws"
	"imposter-stats/internal/infrastructure/postgres"
	"imposter-stats/internal/logging"
	"imposter-stats/internal/match"
	"imposter-stats/internal/metrics"
	"imposter-stats/internal/notify"
	"imposter-stats/internal/platform/respond"
	"imposter-stats/internal/player"
)

// HTTP server timeouts
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	connectTimeout    = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "imposter-stats:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	db, err := postgres.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	store := postgres.NewStore(db)
	recorder := metrics.NewRecorder()

	opts := []match.Option{
		match.WithLogger(logger),
		match.WithRecorder(recorder),
		match.WithDefaultRating(cfg.DefaultRating),
		match.WithAlertThreshold(cfg.AlertViolationThreshold),
	}

	if cfg.ArchiveBucket != "" {
		awsCfg, err := aws.NewAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		opts = append(opts, match.WithArchiver(aws.NewReportArchiver(awsCfg.S3, cfg.ArchiveBucket)))
		logger.Info("report archive enabled", "bucket", cfg.ArchiveBucket, "region", cfg.AWSRegion)
	}

	if cfg.AlertsEnabled() {
		client, err := notify.NewSMTPClient(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			return err
		}
		opts = append(opts, match.WithNotifier(notify.NewMailer(client, cfg.AlertFrom, cfg.AlertTo)))
		logger.Info("moderator alerts enabled", "threshold", cfg.AlertViolationThreshold)
	}

	service := match.NewService(store, opts...)
	authService := auth.NewService(cfg.IngestSecret)

	router := httprouter.New()
	match.NewHandler(service, logger).Routes(router, authService.Middleware)
	player.NewHandler(store).Routes(router)
	router.GET("/healthz", healthz(db))
	router.Handler(http.MethodGet, "/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           logging.Middleware(logger, router),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func healthz(db *sqlx.DB) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := db.PingContext(r.Context()); err != nil {
			respond.Error(w, http.StatusServiceUnavailable, "database_unavailable", err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
