// Package migrate applies the storefront schema from migration files
// compiled into the binary.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Apply brings the schema up to the latest embedded version. It is safe to
// call on every start; an already-current schema is not an error.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	m, cleanup, err := newMigrator(ctx, pool)
	if err != nil {
		return err
	}
	defer cleanup()

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		// The schema_migrations version points at a file the binary does not
		// carry. Happens when a stale binary runs against a newer database.
		return fmt.Errorf("apply schema: %w (the SQL files are embedded; deploy a binary built from the same revision as the database schema)", err)
	}
	return fmt.Errorf("apply schema: %w", err)
}

// newMigrator bridges the pgx pool to golang-migrate, which speaks
// database/sql; it opens its own connection from the pool's DSN.
func newMigrator(ctx context.Context, pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(schemaFS, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded schema: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("open migration connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("ping migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("init postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, func() { m.Close() }, nil
}
