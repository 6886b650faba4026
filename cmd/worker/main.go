package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/helix-id/helix/internal/accounts"
	"github.com/helix-id/helix/internal/app"
	"github.com/helix-id/helix/internal/bus"
	"github.com/helix-id/helix/internal/comms"
	"github.com/helix-id/helix/internal/directory"
	"github.com/helix-id/helix/internal/platform/cache"
	"github.com/helix-id/helix/internal/platform/db"
	"github.com/helix-id/helix/internal/provider"
	"github.com/helix-id/helix/internal/provider/okta"
	"github.com/helix-id/helix/internal/recovery"
	"github.com/helix-id/helix/internal/shared"
	"github.com/helix-id/helix/internal/users"
	"github.com/helix-id/helix/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queueClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	oktaClient := okta.NewClient(ctx, okta.Config{
		OrgURL:       cfg.OktaOrgURL,
		APIToken:     cfg.OktaAPIToken,
		ClientID:     cfg.OktaClientID,
		ClientSecret: cfg.OktaClientSecret,
		TokenURL:     cfg.OktaTokenURL,
	}, logger)
	registry := provider.NewRegistry(map[provider.Tag]provider.Port{
		provider.Okta: oktaClient,
	})
	if err := registry.Validate(); err != nil {
		logger.Error("provider registry", slog.Any("error", err))
		os.Exit(1)
	}

	gate := accounts.NewGate(accounts.NewHTTPClient(cfg.AccountsURL, cfg.LookupTimeout))
	dirClient := directory.NewHTTPClient(cfg.DirectoryURL, cfg.LookupTimeout)

	ruleCache := comms.NewRuleCache(redisClient,
		comms.NewAuthServerClient(cfg.AuthServersURL, cfg.LookupTimeout), cfg.RuleCacheTTL)
	dispatcher := comms.NewDispatcher(ruleCache, comms.NewJobsEnqueuer(queueClient), logger)
	publisher := bus.NewAsynqPublisher(queueClient)
	clock := shared.SystemClock{}

	userRepo := users.NewRepository(pool)
	recoveryService := recovery.NewService(
		recovery.NewRepository(pool), gate, users.NewLookup(userRepo),
		dispatcher, publisher, clock, cfg.ChangeTokenTTL, logger)
	userService := users.NewService(
		userRepo, gate, dirClient, registry, dispatcher, recoveryService,
		publisher, clock, cfg.OnboardTokenTTL, logger)

	handlers := append(
		users.TaskHandlers(userService, logger),
		recovery.TaskHandlers(recoveryService, logger)...,
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers:  handlers,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
