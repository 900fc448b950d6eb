// Package migrations holds the bun migrations for the Postgres backend. Each
// migration file is named <version>_<name>.go; bun reads the version from it.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
