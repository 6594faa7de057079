package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// CreateWeight inserts a body weight entry.
func (db *DB) CreateWeight(ctx context.Context, w models.WeightEntry) (*models.WeightEntry, error) {
	w.Date = models.DateOf(w.Date)
	err := db.q.QueryRow(ctx,
		`INSERT INTO weights (user_id, weight, date) VALUES ($1, $2, $3) RETURNING id`,
		w.UserID, w.Weight, w.Date).Scan(&w.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting weight: %w", mapErr(err))
	}
	return &w, nil
}

// ListWeights returns owner's weight entries, oldest first.
func (db *DB) ListWeights(ctx context.Context, owner int64) ([]models.WeightEntry, error) {
	rows, err := db.q.Query(ctx,
		`SELECT id, user_id, weight, date FROM weights WHERE user_id = $1 ORDER BY date ASC, id ASC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying weights: %w", err)
	}
	defer rows.Close()

	result := []models.WeightEntry{}
	for rows.Next() {
		var w models.WeightEntry
		if err := rows.Scan(&w.ID, &w.UserID, &w.Weight, &w.Date); err != nil {
			return nil, fmt.Errorf("scanning weight: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// UpdateWeight changes the weight of one of the owner's entries, and its date
// when w.Date is set.
func (db *DB) UpdateWeight(ctx context.Context, w models.WeightEntry) error {
	var date *time.Time
	if !w.Date.IsZero() {
		d := models.DateOf(w.Date)
		date = &d
	}
	tag, err := db.q.Exec(ctx,
		`UPDATE weights SET weight = $1, date = COALESCE($2::date, date) WHERE id = $3 AND user_id = $4`,
		w.Weight, date, w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("updating weight: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("weight %d: %w", w.ID, mapErr(pgx.ErrNoRows))
	}
	return nil
}
