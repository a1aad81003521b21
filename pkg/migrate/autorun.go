package migrate

import (
	"context"
	"fmt"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// ShouldAutoRun reports whether a binary should apply the embedded migrations
// at boot: the auto-migrate flag must be on, and the process must be in dev
// or running on a local SQLite file.
func ShouldAutoRun(cfg *config.Config) bool {
	if cfg == nil || !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	return cfg.App.IsDev() || cfg.DB.IsSQLite()
}

// MaybeRunDev applies the embedded migrations when ShouldAutoRun allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB.Driver)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "applying embedded migrations")

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "embedded migrations applied")
	return nil
}
