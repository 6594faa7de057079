package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateSession inserts a session for owner on date.
func (db *DB) CreateSession(ctx context.Context, owner int64, date time.Time) (*models.Session, error) {
	s := &models.Session{ID: uuid.New(), UserID: owner, Date: models.DateOf(date)}
	err := db.q.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, date) VALUES ($1, $2, $3) RETURNING created_at`,
		s.ID, s.UserID, s.Date).Scan(&s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", mapErr(err))
	}
	return s, nil
}

// GetSession retrieves one of owner's sessions.
func (db *DB) GetSession(ctx context.Context, owner int64, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := db.q.QueryRow(ctx,
		`SELECT id, user_id, date, created_at FROM sessions WHERE id = $1 AND user_id = $2`,
		id, owner).Scan(&s.ID, &s.UserID, &s.Date, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, mapErr(err))
	}
	return &s, nil
}

// FindSessions returns owner's sessions dated on any of dates, ordered by
// date then creation. seq breaks ties between equal timestamps.
func (db *DB) FindSessions(ctx context.Context, owner int64, dates []time.Time) ([]models.Session, error) {
	days := make([]time.Time, len(dates))
	for i, d := range dates {
		days[i] = models.DateOf(d)
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, user_id, date, created_at FROM sessions
		 WHERE user_id = $1 AND date = ANY($2::date[])
		 ORDER BY date ASC, created_at ASC, seq ASC`,
		owner, days)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListSessions returns all of owner's sessions, most recent first.
func (db *DB) ListSessions(ctx context.Context, owner int64) ([]models.Session, error) {
	rows, err := db.q.Query(ctx,
		`SELECT id, user_id, date, created_at FROM sessions
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC, seq DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]models.Session, error) {
	result := []models.Session{}
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
