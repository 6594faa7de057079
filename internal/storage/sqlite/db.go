// Package sqlite implements training.Store on an embedded SQLite database,
// for single-user deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/claude/setlog/internal/training"
	"go.uber.org/multierr"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dateLayout is how calendar dates are stored. It sorts lexically.
const dateLayout = "2006-01-02"

// timeLayout is how timestamps are stored. Fixed width, so it sorts lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY,
	login        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS submuscles (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS muscles (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS muscle_submuscles (
	muscle_id    INTEGER NOT NULL REFERENCES muscles (id) ON DELETE CASCADE,
	submuscle_id INTEGER NOT NULL REFERENCES submuscles (id) ON DELETE CASCADE,
	PRIMARY KEY (muscle_id, submuscle_id)
);

CREATE TABLE IF NOT EXISTS muscular_groups (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS muscular_group_muscles (
	group_id  INTEGER NOT NULL REFERENCES muscular_groups (id) ON DELETE CASCADE,
	muscle_id INTEGER NOT NULL REFERENCES muscles (id) ON DELETE CASCADE,
	PRIMARY KEY (group_id, muscle_id)
);

CREATE TABLE IF NOT EXISTS exercises (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	load_unit   TEXT NOT NULL CHECK (load_unit IN ('kg', 'km', 'm', 'min', 'sec', 'bodyweight')),
	description TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exercise_submuscles (
	exercise_id  INTEGER NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
	submuscle_id INTEGER NOT NULL REFERENCES submuscles (id) ON DELETE CASCADE,
	PRIMARY KEY (exercise_id, submuscle_id)
);

CREATE TABLE IF NOT EXISTS exercise_muscles (
	exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
	muscle_id   INTEGER NOT NULL REFERENCES muscles (id) ON DELETE CASCADE,
	PRIMARY KEY (exercise_id, muscle_id)
);

CREATE TABLE IF NOT EXISTS exercise_groups (
	exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
	group_id    INTEGER NOT NULL REFERENCES muscular_groups (id) ON DELETE CASCADE,
	PRIMARY KEY (exercise_id, group_id)
);

CREATE TABLE IF NOT EXISTS templates (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	user_id INTEGER REFERENCES users (id) ON DELETE CASCADE,
	notes   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS template_lines (
	id          INTEGER PRIMARY KEY,
	template_id INTEGER NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
	exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
	sets        INTEGER NOT NULL DEFAULT 0 CHECK (sets >= 0)
);

CREATE INDEX IF NOT EXISTS idx_template_lines_template ON template_lines (template_id, id);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_date ON sessions (user_id, date);

CREATE TABLE IF NOT EXISTS exercise_records (
	id          INTEGER PRIMARY KEY,
	user_id     INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	session_id  TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
	date        TEXT NOT NULL,
	exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
	repetitions INTEGER NOT NULL DEFAULT 0 CHECK (repetitions >= 0),
	load        REAL NOT NULL DEFAULT 0 CHECK (load >= 0),
	notes       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_exercise_records_session ON exercise_records (session_id, id);
CREATE INDEX IF NOT EXISTS idx_exercise_records_history ON exercise_records (user_id, exercise_id, date);

CREATE TABLE IF NOT EXISTS weights (
	id      INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	weight  REAL NOT NULL CHECK (weight >= 0),
	date    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_weights_user_date ON weights (user_id, date);
`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB implements training.Store on SQLite. Writers are serialized: the pool
// holds a single connection and every transaction starts IMMEDIATE.
type DB struct {
	sql *sql.DB

	q    querier
	inTx bool
	now  func() time.Time
}

var _ training.Store = (*DB)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{sql: db, q: db, now: time.Now}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.sql.Close()
}

// GetOrCreateUser finds or creates a user by login name and returns its ID.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error) {
	var id int64
	err := db.q.QueryRowContext(ctx, `
		INSERT INTO users (login, display_name)
		VALUES (?, ?)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = CURRENT_TIMESTAMP,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return id, nil
}

// WithinOwnerTx runs fn in an IMMEDIATE transaction, which holds the
// database write lock and so serializes every owner.
func (db *DB) WithinOwnerTx(ctx context.Context, owner int64, fn func(tx training.Store) error) error {
	return db.withTx(ctx, func(txdb *DB) error {
		return fn(txdb)
	})
}

// withTx runs fn against a DB bound to a transaction. Nested calls reuse the
// outer transaction.
func (db *DB) withTx(ctx context.Context, fn func(txdb *DB) error) (err error) {
	if db.inTx {
		return fn(db)
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rolling back: %w", rbErr))
			}
		}
	}()

	if err = fn(&DB{sql: db.sql, q: tx, inTx: true, now: db.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// mapErr translates driver errors into training error kinds.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return training.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", training.ErrAlreadyExists, se.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %s", training.ErrInvalidInput, se.Error())
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			if strings.Contains(se.Error(), "UNIQUE") {
				return fmt.Errorf("%w: %s", training.ErrAlreadyExists, se.Error())
			}
			return fmt.Errorf("%w: %s", training.ErrInvalidInput, se.Error())
		}
	}
	return err
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	// Some drivers hand back DATE-looking text with a time suffix.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// parseIDList parses the output of group_concat over integer IDs.
func parseIDList(s sql.NullString) ([]int64, error) {
	ids := []int64{}
	if !s.Valid || s.String == "" {
		return ids, nil
	}
	for _, part := range strings.Split(s.String, ",") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing id list %q: %w", s.String, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
