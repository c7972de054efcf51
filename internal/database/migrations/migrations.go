// Package migrations holds the ordered, idempotent schema migration list.
// Migrations are applied once at startup against the version table that
// bun's migrator maintains; they are never re-run on subsequent boots.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
