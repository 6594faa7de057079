package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/claude/setlog/internal/training"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgxpool.Pool and implements training.Store on PostgreSQL.
type DB struct {
	Pool *pgxpool.Pool

	q    querier
	inTx bool
}

var _ training.Store = (*DB)(nil)

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool, q: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// WithinOwnerTx runs fn in a transaction holding a transaction-scoped
// advisory lock on owner.
func (db *DB) WithinOwnerTx(ctx context.Context, owner int64, fn func(tx training.Store) error) error {
	return db.withTx(ctx, func(txdb *DB) error {
		if _, err := txdb.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, owner); err != nil {
			return fmt.Errorf("locking owner %d: %w", owner, err)
		}
		return fn(txdb)
	})
}

// withTx runs fn against a DB bound to a transaction. Nested calls reuse the
// outer transaction.
func (db *DB) withTx(ctx context.Context, fn func(txdb *DB) error) error {
	if db.inTx {
		return fn(db)
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		return fn(&DB{Pool: db.Pool, q: tx, inTx: true})
	})
}

// mapErr translates driver errors into training error kinds.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return training.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", training.ErrAlreadyExists, pgErr.ConstraintName)
		case "23503", "23514": // foreign_key_violation, check_violation
			return fmt.Errorf("%w: %s", training.ErrInvalidInput, pgErr.Message)
		}
	}
	return err
}
