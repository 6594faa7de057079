package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// CreateSession inserts a session for owner on date.
func (db *DB) CreateSession(ctx context.Context, owner int64, date time.Time) (*models.Session, error) {
	s := &models.Session{
		ID:        uuid.New(),
		UserID:    owner,
		Date:      models.DateOf(date),
		CreatedAt: db.now().UTC(),
	}
	_, err := db.q.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, date, created_at) VALUES (?, ?, ?, ?)`,
		s.ID.String(), s.UserID, formatDate(s.Date), formatTime(s.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", mapErr(err))
	}
	return s, nil
}

// GetSession retrieves one of owner's sessions.
func (db *DB) GetSession(ctx context.Context, owner int64, id uuid.UUID) (*models.Session, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT id, user_id, date, created_at FROM sessions WHERE id = ? AND user_id = ?`,
		id.String(), owner)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, mapErr(err))
	}
	return s, nil
}

// FindSessions returns owner's sessions dated on any of dates, ordered by
// date then creation.
func (db *DB) FindSessions(ctx context.Context, owner int64, dates []time.Time) ([]models.Session, error) {
	if len(dates) == 0 {
		return []models.Session{}, nil
	}
	args := []any{owner}
	for _, d := range dates {
		args = append(args, formatDate(models.DateOf(d)))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, user_id, date, created_at FROM sessions
		 WHERE user_id = ? AND date IN (`+placeholders+`)
		 ORDER BY date ASC, created_at ASC, rowid ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListSessions returns all of owner's sessions, most recent first.
func (db *DB) ListSessions(ctx context.Context, owner int64) ([]models.Session, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, user_id, date, created_at FROM sessions
		 WHERE user_id = ?
		 ORDER BY date DESC, created_at DESC, rowid DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var id, date, created string
	if err := row.Scan(&id, &s.UserID, &date, &created); err != nil {
		return nil, err
	}
	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	if s.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing session date: %w", err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing session created_at: %w", err)
	}
	return &s, nil
}

func scanSessions(rows *sql.Rows) ([]models.Session, error) {
	result := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

const recordColumns = `r.id, r.user_id, r.session_id, r.date, r.exercise_id, e.name, e.load_unit,
	r.repetitions, r.load, r.notes`

// CreateExerciseRecord inserts a single record.
func (db *DB) CreateExerciseRecord(ctx context.Context, rec models.ExerciseRecord) (*models.ExerciseRecord, error) {
	id, err := db.insertRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	return db.getRecord(ctx, rec.UserID, id)
}

// CreateExerciseRecords inserts records in slice order. Returns count inserted.
func (db *DB) CreateExerciseRecords(ctx context.Context, recs []models.ExerciseRecord) (int64, error) {
	var total int64
	err := db.withTx(ctx, func(tx *DB) error {
		for _, r := range recs {
			if _, err := tx.insertRecord(ctx, r); err != nil {
				return err
			}
			total++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (db *DB) insertRecord(ctx context.Context, r models.ExerciseRecord) (int64, error) {
	var id int64
	err := db.q.QueryRowContext(ctx,
		`INSERT INTO exercise_records (user_id, session_id, date, exercise_id, repetitions, load, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		r.UserID, r.SessionID.String(), formatDate(models.DateOf(r.Date)), r.ExerciseID, r.Repetitions, r.Load, r.Notes).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise record: %w", mapErr(err))
	}
	return id, nil
}

func (db *DB) getRecord(ctx context.Context, owner, id int64) (*models.ExerciseRecord, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+recordColumns+`
		 FROM exercise_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.id = ? AND r.user_id = ?`,
		id, owner)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("querying exercise record %d: %w", id, mapErr(err))
	}
	return rec, nil
}

// ListExerciseRecords returns the records of one of owner's sessions in
// creation order.
func (db *DB) ListExerciseRecords(ctx context.Context, owner int64, sessionID uuid.UUID) ([]models.ExerciseRecord, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT `+recordColumns+`
		 FROM exercise_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.session_id = ? AND r.user_id = ?
		 ORDER BY r.id ASC`,
		sessionID.String(), owner)
	if err != nil {
		return nil, fmt.Errorf("querying exercise records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListExerciseHistory returns owner's records of one exercise, oldest first.
func (db *DB) ListExerciseHistory(ctx context.Context, owner, exerciseID int64) ([]models.ExerciseRecord, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT `+recordColumns+`
		 FROM exercise_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.exercise_id = ? AND r.user_id = ?
		 ORDER BY r.date ASC, r.id ASC`,
		exerciseID, owner)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// UpdateExerciseRecord applies the non-nil fields of upd to one of owner's records.
func (db *DB) UpdateExerciseRecord(ctx context.Context, owner, id int64, upd models.RecordUpdate) (*models.ExerciseRecord, error) {
	res, err := db.q.ExecContext(ctx,
		`UPDATE exercise_records SET
			repetitions = COALESCE(?, repetitions),
			load = COALESCE(?, load),
			notes = COALESCE(?, notes)
		 WHERE id = ? AND user_id = ?`,
		upd.Repetitions, upd.Load, upd.Notes, id, owner)
	if err != nil {
		return nil, fmt.Errorf("updating exercise record %d: %w", id, mapErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating exercise record %d: %w", id, mapErr(sql.ErrNoRows))
	}
	return db.getRecord(ctx, owner, id)
}

func scanRecord(row rowScanner) (*models.ExerciseRecord, error) {
	var r models.ExerciseRecord
	var sessionID, date, unit string
	if err := row.Scan(&r.ID, &r.UserID, &sessionID, &date, &r.ExerciseID, &r.ExerciseName, &unit,
		&r.Repetitions, &r.Load, &r.Notes); err != nil {
		return nil, err
	}
	var err error
	if r.SessionID, err = uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	if r.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing record date: %w", err)
	}
	r.LoadUnit = models.LoadUnit(unit)
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]models.ExerciseRecord, error) {
	result := []models.ExerciseRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise record: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// CreateWeight inserts a body weight entry.
func (db *DB) CreateWeight(ctx context.Context, w models.WeightEntry) (*models.WeightEntry, error) {
	w.Date = models.DateOf(w.Date)
	err := db.q.QueryRowContext(ctx,
		`INSERT INTO weights (user_id, weight, date) VALUES (?, ?, ?) RETURNING id`,
		w.UserID, w.Weight, formatDate(w.Date)).Scan(&w.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting weight: %w", mapErr(err))
	}
	return &w, nil
}

// ListWeights returns owner's weight entries, oldest first.
func (db *DB) ListWeights(ctx context.Context, owner int64) ([]models.WeightEntry, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, user_id, weight, date FROM weights WHERE user_id = ? ORDER BY date ASC, id ASC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying weights: %w", err)
	}
	defer rows.Close()

	result := []models.WeightEntry{}
	for rows.Next() {
		var w models.WeightEntry
		var date string
		if err := rows.Scan(&w.ID, &w.UserID, &w.Weight, &date); err != nil {
			return nil, fmt.Errorf("scanning weight: %w", err)
		}
		if w.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parsing weight date: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// UpdateWeight changes the weight of one of the owner's entries, and its date
// when w.Date is set.
func (db *DB) UpdateWeight(ctx context.Context, w models.WeightEntry) error {
	var date *string
	if !w.Date.IsZero() {
		d := formatDate(models.DateOf(w.Date))
		date = &d
	}
	res, err := db.q.ExecContext(ctx,
		`UPDATE weights SET weight = ?, date = COALESCE(?, date) WHERE id = ? AND user_id = ?`,
		w.Weight, date, w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("updating weight: %w", mapErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("weight %d: %w", w.ID, mapErr(sql.ErrNoRows))
	}
	return nil
}
