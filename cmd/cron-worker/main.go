package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/wealthguardian-backend/internal/cron"
	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/metrics"
	"github.com/angelmondragon/wealthguardian-backend/pkg/migrate"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/razorpay"
	"github.com/angelmondragon/wealthguardian-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := metrics.NewRegistry()
	walletMetrics := metrics.NewWalletMetrics(reg)
	gateway, err := razorpay.NewClient(cfg.Razorpay, logg, razorpay.WithObserver(walletMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	walletService, err := wallets.NewService(wallets.ServiceParams{
		DB:           dbClient,
		Repo:         ledgerRepo,
		Outbox:       outboxService,
		WalletConfig: cfg.Wallet,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		DB:              dbClient,
		Repo:            ledgerRepo,
		Wallets:         walletService,
		Gateway:         gateway,
		Outbox:          outboxService,
		Metrics:         walletMetrics,
		Logger:          logg,
		DefaultCurrency: cfg.Wallet.Currency(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:     logg,
		Orders:     ledgerRepo,
		Reconciler: paymentService,
		Limit:      cfg.Reconcile.BatchSize,
		MinAge:     cfg.Reconcile.MinAge,
		MaxAge:     cfg.Reconcile.MaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconcile job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Outbox.Retention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	locker, err := cron.NewRedisLocker(redisClient, lockPrefix(cfg.App.Env), cfg.Reconcile.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron locker", err)
		os.Exit(1)
	}

	schedule := cron.NewSchedule().
		Every(cfg.Reconcile.Interval, reconcileJob).
		Every(cfg.Outbox.PruneInterval, retentionJob)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Schedule:   schedule,
		Locker:     locker,
		Metrics:    metrics.NewCronJobMetrics(reg),
		JobTimeout: locker.TTL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return service.Run(groupCtx) })
	group.Go(func() error { return metrics.Serve(groupCtx, cfg.App.MetricsAddr, reg) })
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockPrefix(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
