package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/bank"
	"github.com/ledgerline/ledgerline/internal/documents"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/posting"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	chartCache := accounts.NewCache(redisClient, cfg.ChartCacheTTL)
	chartService := accounts.NewService(accounts.NewRepository(pool), chartCache)
	bankRepo := bank.NewRepository(pool)
	loanService := loans.NewService(loans.NewRepository(pool))
	assetService := assets.NewService(assets.NewRepository(pool))
	documentsRepo := documents.NewRepository(pool)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	resolver := posting.NewResolver(documentsRepo, chartService, loanService)
	postingService := posting.NewService(
		posting.NewRepository(pool),
		chartService,
		bankRepo,
		loanService,
		assetService,
		resolver,
		auditLogger,
		metrics,
		logger,
	)

	jobLock := shared.NewJobLock(redisClient, 30*time.Minute)
	depreciationJob := jobs.NewDepreciationRunJob(pool, assetService, postingService, jobLock, logger)
	integrityJob := jobs.NewLedgerIntegrityJob(pool, jobLock, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:        asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Concurrency:      cfg.WorkerConcurrency,
		Logger:           logger,
		Depreciation:     depreciationJob,
		Integrity:        integrityJob,
		DepreciationCron: cfg.DepreciationCron,
		IntegrityCron:    cfg.IntegrityCron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
