package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// CreateSession creates an empty session. A zero date means today.
func (s *Service) CreateSession(ctx context.Context, owner int64, date time.Time) (*models.Session, error) {
	if date.IsZero() {
		date = s.Today()
	}
	session, err := s.store.CreateSession(ctx, owner, models.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// GetSession returns one of owner's sessions.
func (s *Service) GetSession(ctx context.Context, owner int64, id uuid.UUID) (*models.Session, error) {
	return s.store.GetSession(ctx, owner, id)
}

// ListSessions returns owner's sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, owner int64) ([]models.Session, error) {
	return s.store.ListSessions(ctx, owner)
}

// LogSetParams describes one set to append to a session.
type LogSetParams struct {
	ExerciseID  int64   `json:"exercise_id"`
	Repetitions int     `json:"repetitions"`
	Load        float64 `json:"load"`
	Notes       string  `json:"notes,omitempty"`
}

// LogSet appends a record to one of owner's sessions. The record's owner and
// date are copied from the session.
func (s *Service) LogSet(ctx context.Context, owner int64, sessionID uuid.UUID, p LogSetParams) (*models.ExerciseRecord, error) {
	if err := validateSet(p.Repetitions, p.Load); err != nil {
		return nil, err
	}
	session, err := s.store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	exercise, err := s.store.GetExercise(ctx, p.ExerciseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidf("exercise %d does not exist", p.ExerciseID)
		}
		return nil, fmt.Errorf("loading exercise %d: %w", p.ExerciseID, err)
	}

	rec, err := s.store.CreateExerciseRecord(ctx, models.ExerciseRecord{
		UserID:       session.UserID,
		SessionID:    session.ID,
		Date:         session.Date,
		ExerciseID:   exercise.ID,
		ExerciseName: exercise.Name,
		LoadUnit:     exercise.LoadUnit,
		Repetitions:  p.Repetitions,
		Load:         p.Load,
		Notes:        p.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	return rec, nil
}

// UpdateRecord edits one of owner's records in place.
func (s *Service) UpdateRecord(ctx context.Context, owner, recordID int64, upd models.RecordUpdate) (*models.ExerciseRecord, error) {
	if upd.Repetitions != nil && *upd.Repetitions < 0 {
		return nil, invalidf("repetitions must not be negative, got %d", *upd.Repetitions)
	}
	if upd.Load != nil && (*upd.Load < 0 || math.IsNaN(*upd.Load) || math.IsInf(*upd.Load, 0)) {
		return nil, invalidf("load must be a finite non-negative number, got %g", *upd.Load)
	}
	rec, err := s.store.UpdateExerciseRecord(ctx, owner, recordID, upd)
	if err != nil {
		return nil, fmt.Errorf("updating record %d: %w", recordID, err)
	}
	return rec, nil
}

func validateSet(reps int, load float64) error {
	if reps < 0 {
		return invalidf("repetitions must not be negative, got %d", reps)
	}
	if load < 0 {
		return invalidf("load must not be negative, got %g", load)
	}
	if math.IsNaN(load) || math.IsInf(load, 0) {
		return invalidf("load must be a finite number")
	}
	return nil
}

// ExerciseHistory is every record of one exercise for a user, oldest first.
type ExerciseHistory struct {
	Exercise       models.Exercise         `json:"exercise"`
	Entries        []models.ExerciseRecord `json:"entries"`
	PersonalRecord float64                 `json:"personal_record"`
}

// ExerciseHistory returns owner's records of an exercise and the highest load
// ever logged for it (0 without records).
func (s *Service) ExerciseHistory(ctx context.Context, owner, exerciseID int64) (*ExerciseHistory, error) {
	exercise, err := s.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise %d: %w", exerciseID, err)
	}
	entries, err := s.store.ListExerciseHistory(ctx, owner, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("listing history of exercise %d: %w", exerciseID, err)
	}

	var pr float64
	for _, e := range entries {
		if e.Load > pr {
			pr = e.Load
		}
	}
	if entries == nil {
		entries = []models.ExerciseRecord{}
	}
	return &ExerciseHistory{Exercise: *exercise, Entries: entries, PersonalRecord: pr}, nil
}

// AddWeight records a body weight measurement. A zero date means today.
func (s *Service) AddWeight(ctx context.Context, owner int64, weight float64, date time.Time) (*models.WeightEntry, error) {
	if weight < 0 {
		return nil, invalidf("weight must not be negative, got %g", weight)
	}
	if date.IsZero() {
		date = s.Today()
	}
	w, err := s.store.CreateWeight(ctx, models.WeightEntry{UserID: owner, Weight: weight, Date: models.DateOf(date)})
	if err != nil {
		return nil, fmt.Errorf("creating weight entry: %w", err)
	}
	return w, nil
}

// UpdateWeight changes one of owner's weight entries. A zero date keeps the
// stored date.
func (s *Service) UpdateWeight(ctx context.Context, owner, id int64, weight float64, date time.Time) error {
	if weight < 0 {
		return invalidf("weight must not be negative, got %g", weight)
	}
	entry := models.WeightEntry{ID: id, UserID: owner, Weight: weight}
	if !date.IsZero() {
		entry.Date = models.DateOf(date)
	}
	if err := s.store.UpdateWeight(ctx, entry); err != nil {
		return fmt.Errorf("updating weight entry %d: %w", id, err)
	}
	return nil
}

// ListWeights returns owner's weight entries, oldest first.
func (s *Service) ListWeights(ctx context.Context, owner int64) ([]models.WeightEntry, error) {
	return s.store.ListWeights(ctx, owner)
}
