package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		stmts := []string{
			`ALTER TABLE listings ADD COLUMN owner_id INTEGER`,
			`ALTER TABLE listings ADD COLUMN discount INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE listings ADD COLUMN rating REAL NOT NULL DEFAULT 0`,
			`ALTER TABLE listings ADD COLUMN reviews_count INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE listings ADD COLUMN in_stock INTEGER`,
			`ALTER TABLE listings ADD COLUMN is_hot INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE listings ADD COLUMN tags TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category)`,
			`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		stmts := []string{
			`DROP INDEX IF EXISTS idx_listings_owner`,
			`DROP INDEX IF EXISTS idx_listings_category`,
			`ALTER TABLE listings DROP COLUMN tags`,
			`ALTER TABLE listings DROP COLUMN is_hot`,
			`ALTER TABLE listings DROP COLUMN in_stock`,
			`ALTER TABLE listings DROP COLUMN reviews_count`,
			`ALTER TABLE listings DROP COLUMN rating`,
			`ALTER TABLE listings DROP COLUMN discount`,
			`ALTER TABLE listings DROP COLUMN owner_id`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
