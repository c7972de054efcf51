package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		stmts := []string{
			`ALTER TABLE users ADD COLUMN reset_code TEXT`,
			`ALTER TABLE users ADD COLUMN reset_requested_at INTEGER`,
			`ALTER TABLE users ADD COLUMN created_at INTEGER`,
			`ALTER TABLE users ADD COLUMN avatar_path TEXT`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		stmts := []string{
			`ALTER TABLE users DROP COLUMN avatar_path`,
			`ALTER TABLE users DROP COLUMN created_at`,
			`ALTER TABLE users DROP COLUMN reset_requested_at`,
			`ALTER TABLE users DROP COLUMN reset_code`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
