package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

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
		slog.Default().Info("test mode detected, skipping server startup")
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
	bankService := bank.NewService(bankRepo)
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

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Metrics:  metrics,
		Accounts: accounts.NewHandler(logger, chartService),
		Bank:     bank.NewHandler(logger, bankService),
		Loans:    loans.NewHandler(logger, loanService),
		Assets:   assets.NewHandler(logger, assetService),
		Posting:  posting.NewHandler(logger, postingService, decimal.NewFromFloat(cfg.VATStandardRate)),
		Jobs:     jobs.NewHandler(jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
