// Package migrations holds the schema migrations for the postgres store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registered set, applied in file-name order.
var Migrations = migrate.NewMigrations()

func init() {
	// Migration names come from the registering file name.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
