// Package migrate applies the embedded schema with golang-migrate.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vidhub/backend/migrations"
)

// Run executes a migrate command (up, down or status) against the database at dsn.
func Run(ctx context.Context, dsn, command string, out io.Writer) error {
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqldb.Close()

	driver, err := postgres.WithInstance(sqldb, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	logger := slog.Default().With("command", command)

	switch command {
	case "up", "":
		logger.Info("applying migrations")
		err = m.Up()
	case "down":
		logger.Info("reverting last migration")
		err = m.Steps(-1)
	case "status":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Fprintln(out, "no migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read schema version: %w", verr)
		}
		fmt.Fprintf(out, "version %d (dirty=%t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(out, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s migrations: %w", command, err)
	}

	fmt.Fprintf(out, "migrations %s complete\n", command)
	return nil
}
