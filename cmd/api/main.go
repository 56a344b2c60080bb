package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/wealthguardian-backend/api/routes"
	"github.com/angelmondragon/wealthguardian-backend/internal/auth"
	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	"github.com/angelmondragon/wealthguardian-backend/internal/transfers"
	"github.com/angelmondragon/wealthguardian-backend/internal/users"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	razorpaywebhook "github.com/angelmondragon/wealthguardian-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/metrics"
	"github.com/angelmondragon/wealthguardian-backend/pkg/migrate"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/razorpay"
	"github.com/angelmondragon/wealthguardian-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	walletMetrics := metrics.NewWalletMetrics(registry)

	gateway, err := razorpay.NewClient(cfg.Razorpay, logg, razorpay.WithObserver(walletMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

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

	userService, err := users.NewService(userRepo, walletService)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Wallets:        walletService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Users:          userRepo,
		Wallets:        walletService,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	transferService, err := transfers.NewService(transfers.ServiceParams{
		DB:      dbClient,
		Repo:    ledgerRepo,
		Wallets: walletService,
		Users:   userRepo,
		Outbox:  outboxService,
		Metrics: walletMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transfer service", err)
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

	webhookService, err := razorpaywebhook.NewService(paymentService)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Razorpay.WebhookTTL, razorpaywebhook.GuardScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, metrics.Handler(registry), sessionManager, routes.Services{
		Auth:            authService,
		Register:        registerService,
		Users:           userService,
		Wallets:         walletService,
		Payments:        paymentService,
		Transfers:       transferService,
		Webhook:         webhookService,
		WebhookVerifier: gateway,
		WebhookGuard:    webhookGuard,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
