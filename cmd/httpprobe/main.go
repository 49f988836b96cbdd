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
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/httpprobe/internal/config"
	"github.com/hamed0406/httpprobe/internal/httpapi"
	"github.com/hamed0406/httpprobe/internal/logging"
	"github.com/hamed0406/httpprobe/internal/notify"
	"github.com/hamed0406/httpprobe/internal/probe"
	"github.com/hamed0406/httpprobe/internal/repo"
	"github.com/hamed0406/httpprobe/internal/repo/csvfile"
	"github.com/hamed0406/httpprobe/internal/repo/memory"
	"github.com/hamed0406/httpprobe/internal/repo/postgres"
	"github.com/hamed0406/httpprobe/internal/repo/sqlite"
	"github.com/hamed0406/httpprobe/internal/scheduler"
)

const (
	apiRPM   = 120
	apiBurst = 60
)

func main() {
	cfg, err := config.Load("httpprobe", os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{
		File:      cfg.LogFile,
		Verbosity: cfg.LogLevel,
		Console:   zapcore.Lock(os.Stdout),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("fatal", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	targets := probe.NormalizeTargets(cfg.URLs)

	mem := memory.New()
	stores, err := openStores(ctx, cfg, logger, mem)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("store_close_error", zap.Error(err))
		}
	}()

	c := scheduler.NewCoordinator(logger, probe.NewRawProber(logger), stores, targets, cfg.Iterations, cfg.Delay)
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		c.Notifier = slack
	}

	if cfg.ListenAddr != "" {
		api := httpapi.NewServer(logger, mem, targets, c.RunID)
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api.Router(cfg.APIToken, apiRPM, apiBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.ListenAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_listen_error", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	summaries, err := c.Run(ctx)
	failed := 0
	for _, s := range summaries {
		failed += s.Failed + s.Missing()
	}
	logger.Info("summary",
		zap.String("run_id", c.RunID),
		zap.Int("iterations", len(summaries)),
		zap.Int("failed_or_missing", failed),
	)
	return err
}

// openStores always includes the CSV file and the in-memory store; SQLite and
// Postgres join when configured.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger, mem *memory.Store) (repo.Multi, error) {
	out, err := csvfile.Open(cfg.CSVPath)
	if err != nil {
		return nil, err
	}
	stores := repo.Multi{out, mem}

	if cfg.SQLitePath != "" {
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			stores.Close()
			return nil, err
		}
		stores = append(stores, s)
		logger.Info("store_enabled", zap.String("kind", "sqlite"), zap.String("path", cfg.SQLitePath))
	}
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			stores.Close()
			return nil, err
		}
		stores = append(stores, pg)
		logger.Info("store_enabled", zap.String("kind", "postgres"))
	}
	return stores, nil
}
