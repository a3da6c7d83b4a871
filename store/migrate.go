package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to the latest embedded version.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var (
		driver database.Driver
		own    *sql.DB
	)
	switch s.dialect {
	case Postgres:
		// The postgres driver pins a connection and closes its *sql.DB on
		// Close, so it gets a pool of its own.
		own, err = sql.Open("postgres", s.dsn)
		if err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		driver, err = postgres.WithInstance(own, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	}
	if err != nil {
		if own != nil {
			own.Close()
		}
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.dialect.String(), driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if own != nil {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	s.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema migrated")
	return nil
}
