package migration

import (
	"github.com/roomloghq/roomlog/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func runOnStart(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		log.Info("skipping migrations", zap.String("db_type", cfg.DBType))
		return nil
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	if err := RunMigrations(sqlDB); err != nil {
		return err
	}

	log.Info("migrations applied")
	return nil
}

// Module applies schema migrations during application startup.
var Module = fx.Module("migration",
	fx.Invoke(runOnStart),
)
