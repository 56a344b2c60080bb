package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

// MaybeRunDev migrates on boot in dev when WEALTHGUARDIAN_AUTO_MIGRATE is set.
// SQLite gets GORM AutoMigrate, Postgres the embedded goose files.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "running GORM auto-migrate (sqlite)")
		return AutoMigrate(client)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	runner, err := NewRunner(sqlDB, Migrations(), logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "running embedded goose migrations (dev auto-run)")
	return runner.Up(ctx)
}

// AutoMigrate creates or updates every ledger table from the GORM models.
func AutoMigrate(client *db.Client) error {
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
