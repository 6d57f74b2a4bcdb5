// Package migrate runs goose SQL migrations embedded in the binary.
package migrate

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DefaultDir is where new migration files are created on disk.
const DefaultDir = "pkg/migrate/migrations"

// Run applies all pending migrations.
func Run(ctx context.Context, conn *gorm.DB, logg *logger.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "migrations applied")
	}
	return nil
}

// MaybeRunDev applies migrations automatically in dev when the flag is on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, conn *gorm.DB, logg *logger.Logger) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	return Run(ctx, conn, logg)
}

// CreateSQLMigration scaffolds a new timestamped SQL migration file.
func CreateSQLMigration(name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	return goose.Create(nil, DefaultDir, name, "sql")
}
