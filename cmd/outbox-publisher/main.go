package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/wealthguardian-backend/internal/walletevents"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/metrics"
	"github.com/angelmondragon/wealthguardian-backend/pkg/migrate"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/registry"
	"github.com/angelmondragon/wealthguardian-backend/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": serviceKind})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "wallet event relay stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "wallet event relay shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer psClient.Close()

	resolver, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}

	reg := metrics.NewRegistry()
	sink := walletevents.NewPubSubSink(psClient)
	defer sink.Stop()

	relay, err := walletevents.NewRelay(walletevents.RelayParams{
		Config:   cfg.Outbox,
		Logger:   logg,
		Metrics:  metrics.NewRelayMetrics(reg),
		DB:       dbClient,
		Store:    outbox.NewRepository(dbClient.DB()),
		Resolver: resolver,
		Sink:     sink,
	})
	if err != nil {
		return fmt.Errorf("create relay: %w", err)
	}

	if err := dbClient.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := psClient.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}

	logg.Info(ctx, "starting wallet event relay")
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return relay.Run(groupCtx) })
	group.Go(func() error { return metrics.Serve(groupCtx, cfg.App.MetricsAddr, reg) })
	return group.Wait()
}
