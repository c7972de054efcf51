package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				name          TEXT NOT NULL DEFAULT '',
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL
			)
		`); err != nil {
			return err
		}

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS listings (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				title       TEXT NOT NULL,
				category    TEXT NOT NULL DEFAULT '',
				price       TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				image_path  TEXT NOT NULL DEFAULT '',
				created_at  INTEGER NOT NULL
			)
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS listings`); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS users`)
		return err
	})
}
