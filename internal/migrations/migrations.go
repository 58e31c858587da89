// Package migrations owns the written schema: users and their profiles,
// titles, postings, scraps, and subscriptions. The SQL files are embedded
// so any fresh database, including the in-memory ones the tests use, can
// be brought to the current version with a single call.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var schemaFS embed.FS

// Run brings the database up to the latest schema version. Running against
// an up-to-date database is a no-op.
func Run(dbx *sqlx.DB) error {
	migrator, err := newMigrator(dbx)
	if err != nil {
		return err
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating: %s", err)
	}

	version, _, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("error reading schema version: %s", err)
	}
	slog.Info("database migrated", "schema_version", version)

	return nil
}

func newMigrator(dbx *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFS, ".")
	if err != nil {
		return nil, fmt.Errorf("error creating migrations source: %s", err)
	}
	inst, err := sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("error creating sqlite instance for migration: %s", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", inst)
	if err != nil {
		return nil, fmt.Errorf("error creating migrator: %s", err)
	}

	return migrator, nil
}
