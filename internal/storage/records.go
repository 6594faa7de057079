package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// recordBatchSize keeps batch inserts well below the 65535 parameter limit.
const recordBatchSize = 1000

const recordColumns = `r.id, r.user_id, r.session_id, r.date, r.exercise_id, e.name, e.load_unit,
	r.repetitions, r.load, r.notes`

// CreateExerciseRecord inserts a single record.
func (db *DB) CreateExerciseRecord(ctx context.Context, rec models.ExerciseRecord) (*models.ExerciseRecord, error) {
	row := db.q.QueryRow(ctx,
		`WITH r AS (
			INSERT INTO exercise_records (user_id, session_id, date, exercise_id, repetitions, load, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		 )
		 SELECT `+recordColumns+` FROM r JOIN exercises e ON e.id = r.exercise_id`,
		rec.UserID, rec.SessionID, models.DateOf(rec.Date), rec.ExerciseID, rec.Repetitions, rec.Load, rec.Notes)
	created, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise record: %w", mapErr(err))
	}
	return created, nil
}

// CreateExerciseRecords batch-inserts records in slice order. Returns count inserted.
func (db *DB) CreateExerciseRecords(ctx context.Context, recs []models.ExerciseRecord) (int64, error) {
	var total int64
	for start := 0; start < len(recs); start += recordBatchSize {
		end := min(start+recordBatchSize, len(recs))
		n, err := db.insertRecordBatch(ctx, recs[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (db *DB) insertRecordBatch(ctx context.Context, recs []models.ExerciseRecord) (int64, error) {
	query := `INSERT INTO exercise_records (user_id, session_id, date, exercise_id, repetitions, load, notes) VALUES `
	args := make([]any, 0, len(recs)*7)
	valueStrings := make([]string, 0, len(recs))

	for i, r := range recs {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, r.UserID, r.SessionID, models.DateOf(r.Date), r.ExerciseID, r.Repetitions, r.Load, r.Notes)
	}

	query += strings.Join(valueStrings, ",")

	tag, err := db.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise records: %w", mapErr(err))
	}
	return tag.RowsAffected(), nil
}

// ListExerciseRecords returns the records of one of owner's sessions in
// creation order.
func (db *DB) ListExerciseRecords(ctx context.Context, owner int64, sessionID uuid.UUID) ([]models.ExerciseRecord, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM exercise_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.session_id = $1 AND r.user_id = $2
		 ORDER BY r.id ASC`,
		sessionID, owner)
	if err != nil {
		return nil, fmt.Errorf("querying exercise records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListExerciseHistory returns owner's records of one exercise, oldest first.
func (db *DB) ListExerciseHistory(ctx context.Context, owner, exerciseID int64) ([]models.ExerciseRecord, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM exercise_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.exercise_id = $1 AND r.user_id = $2
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
	row := db.q.QueryRow(ctx,
		`WITH r AS (
			UPDATE exercise_records SET
				repetitions = COALESCE($1::integer, repetitions),
				load = COALESCE($2::double precision, load),
				notes = COALESCE($3::text, notes)
			WHERE id = $4 AND user_id = $5
			RETURNING *
		 )
		 SELECT `+recordColumns+` FROM r JOIN exercises e ON e.id = r.exercise_id`,
		upd.Repetitions, upd.Load, upd.Notes, id, owner)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("updating exercise record %d: %w", id, mapErr(err))
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*models.ExerciseRecord, error) {
	var r models.ExerciseRecord
	var unit string
	if err := row.Scan(&r.ID, &r.UserID, &r.SessionID, &r.Date, &r.ExerciseID, &r.ExerciseName, &unit,
		&r.Repetitions, &r.Load, &r.Notes); err != nil {
		return nil, err
	}
	r.LoadUnit = models.LoadUnit(unit)
	return &r, nil
}

func scanRecords(rows pgx.Rows) ([]models.ExerciseRecord, error) {
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
