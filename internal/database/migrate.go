package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"marketplace-api/internal/database/migrations"
)

// Migrate applies all pending schema migrations in registration order.
// Safe to call on every startup: already-applied migrations are skipped
// based on the migration table the migrator maintains.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migration tables: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if group.IsZero() {
		return nil
	}

	return nil
}
