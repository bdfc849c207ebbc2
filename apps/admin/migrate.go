package main

import (
	"database/sql"

	"github.com/Jaimin17/Zenith-School-Backend/storage/database"
)

var migrateFunc func(db *sql.DB, command ...string) error = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	return migrateFunc(cli.db, args...)
}
