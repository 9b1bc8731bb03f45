// Package database keeps users and the ledger in PostgreSQL.
package database

import (
	"context"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Renal37/bankaccount/internal/logger"
)

type Database struct {
	db  *pgxpool.Pool
	dsn string
}

type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func checkConnection(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return errors.Wrap(err, "failed to connect to the database")
	}

	return nil
}

func New(ctx context.Context, dsn string) (*Database, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := checkConnection(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db, dsn: dsn}, nil
}

// RunMigrations applies the embedded migrations.
func (d *Database) RunMigrations() error {
	driver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to open migrations")
	}

	migrations, err := migrate.NewWithSourceInstance("iofs", driver, d.dsn)
	if err != nil {
		return errors.Wrap(err, "failed to initialize migrations")
	}
	defer migrations.Close()

	if err := migrations.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Log.Info("no new migrations")
			return nil
		}
		return errors.Wrap(err, "failed to apply migrations")
	}

	logger.Log.Info("migrations applied")
	return nil
}

func (d *Database) Close() {
	if d.db != nil {
		d.db.Close()
	}
}
