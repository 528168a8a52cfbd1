package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/logger"
)

// Models lists every aggregate the schema carries, in dependency order.
func Models() []any {
	return []any{
		&models.StaffUser{},
		&models.Table{},
		&models.DiningSession{},
		&models.Order{},
		&models.Reservation{},
		&models.MergeGroup{},
		&models.OutboxEvent{},
	}
}

// Run applies the schema to the provided connection.
func Run(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database connection required")
	}
	if err := conn.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}
	return nil
}

// MaybeRunDev executes migrations automatically when the app is running in
// dev mode and the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, conn *gorm.DB) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running schema migrations (dev auto-run)")

	if err := Run(ctx, conn); err != nil {
		return err
	}

	logg.Info(ctx, "schema migrations completed")
	return nil
}
