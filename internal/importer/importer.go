// Package importer turns exported workout logs into sessions and records.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/claude/setlog/internal/ingest/alpha"
	"github.com/claude/setlog/internal/metrics"
	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/training"
)

// Stats tracks import progress.
type Stats struct {
	SessionsParsed   int  `json:"sessions_parsed"`
	SessionsImported int  `json:"sessions_imported"`
	SessionsSkipped  int  `json:"sessions_skipped"`
	SetsImported     int  `json:"sets_imported"`
	WarmupsSkipped   int  `json:"warmups_skipped"`
	ExercisesCreated int  `json:"exercises_created"`
	DryRun           bool `json:"dry_run"`
}

// Importer writes parsed sessions for one owner into a Store.
type Importer struct {
	store  training.Store
	log    *slog.Logger
	inst   *metrics.Instrumentation
	dryRun bool

	exercises map[string]*models.Exercise
}

// New creates a new Importer. inst may be nil.
func New(store training.Store, log *slog.Logger, inst *metrics.Instrumentation, dryRun bool) *Importer {
	return &Importer{store: store, log: log, inst: inst, dryRun: dryRun}
}

// Import parses an export and writes every session whose date has no
// session yet for owner. Each session is written in its own transaction.
func (imp *Importer) Import(ctx context.Context, owner int64, r io.Reader) (*Stats, error) {
	stats := &Stats{DryRun: imp.dryRun}
	imp.exercises = make(map[string]*models.Exercise)

	sessions, err := alpha.Parse(r)
	if err != nil {
		return stats, fmt.Errorf("parsing export: %w", err)
	}
	stats.SessionsParsed = len(sessions)

	planned := make(map[string]bool)
	for _, s := range sessions {
		date := models.DateOf(s.Date)
		existing, err := imp.store.FindSessions(ctx, owner, []time.Time{date})
		if err != nil {
			return stats, fmt.Errorf("checking sessions on %s: %w", date.Format(models.DateLayout), err)
		}
		if len(existing) > 0 {
			imp.log.Info("skipping session (date already logged)", "name", s.Name, "date", date.Format(models.DateLayout))
			stats.SessionsSkipped++
			continue
		}

		if imp.dryRun {
			if err := imp.plan(ctx, s, planned, stats); err != nil {
				return stats, err
			}
			stats.SessionsImported++
			continue
		}

		if err := imp.importSession(ctx, owner, date, s, stats); err != nil {
			return stats, fmt.Errorf("importing session %q on %s: %w", s.Name, date.Format(models.DateLayout), err)
		}
		stats.SessionsImported++
	}

	if !imp.dryRun {
		imp.inst.ObserveImport(stats.SessionsImported)
	}
	return stats, nil
}

// plan counts what importing s would write.
func (imp *Importer) plan(ctx context.Context, s alpha.Session, planned map[string]bool, stats *Stats) error {
	for _, ex := range s.Exercises {
		name := ex.CatalogName()
		if !planned[name] {
			planned[name] = true
			_, err := imp.store.GetExerciseByName(ctx, name)
			switch {
			case errors.Is(err, training.ErrNotFound):
				stats.ExercisesCreated++
			case err != nil:
				return fmt.Errorf("looking up exercise %q: %w", name, err)
			}
		}
		for _, set := range ex.Sets {
			if set.Warmup {
				stats.WarmupsSkipped++
				continue
			}
			stats.SetsImported++
		}
	}
	return nil
}

func (imp *Importer) importSession(ctx context.Context, owner int64, date time.Time, s alpha.Session, stats *Stats) error {
	created := make(map[string]*models.Exercise)
	var sets, warmups int

	err := imp.store.WithinOwnerTx(ctx, owner, func(tx training.Store) error {
		session, err := tx.CreateSession(ctx, owner, date)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}

		var records []models.ExerciseRecord
		for _, ex := range s.Exercises {
			exercise, err := imp.resolveExercise(ctx, tx, ex, created)
			if err != nil {
				return err
			}
			for _, set := range ex.Sets {
				if set.Warmup {
					warmups++
					continue
				}
				records = append(records, models.ExerciseRecord{
					UserID:       owner,
					SessionID:    session.ID,
					Date:         session.Date,
					ExerciseID:   exercise.ID,
					ExerciseName: exercise.Name,
					LoadUnit:     exercise.LoadUnit,
					Repetitions:  set.Reps,
					Load:         set.WeightKg,
					Notes:        "RIR " + strconv.FormatFloat(set.RIR, 'f', -1, 64),
				})
			}
		}

		n, err := tx.CreateExerciseRecords(ctx, records)
		if err != nil {
			return fmt.Errorf("creating records: %w", err)
		}
		sets = int(n)
		return nil
	})
	if err != nil {
		return err
	}

	// Only committed exercises enter the cache.
	for name, e := range created {
		imp.exercises[name] = e
	}
	stats.ExercisesCreated += len(created)
	stats.SetsImported += sets
	stats.WarmupsSkipped += warmups

	imp.log.Info("session imported", "name", s.Name, "date", date.Format(models.DateLayout), "sets", sets)
	return nil
}

// resolveExercise finds the catalog exercise for ex by name, creating it when
// missing.
func (imp *Importer) resolveExercise(ctx context.Context, tx training.Store, ex alpha.Exercise, created map[string]*models.Exercise) (*models.Exercise, error) {
	name := ex.CatalogName()
	if e, ok := imp.exercises[name]; ok {
		return e, nil
	}
	if e, ok := created[name]; ok {
		return e, nil
	}

	e, err := tx.GetExerciseByName(ctx, name)
	if err == nil {
		imp.exercises[name] = e
		return e, nil
	}
	if !errors.Is(err, training.ErrNotFound) {
		return nil, fmt.Errorf("looking up exercise %q: %w", name, err)
	}

	unit := models.LoadUnitKilograms
	if ex.Bodyweight() {
		unit = models.LoadUnitBodyweight
	}
	e, err = tx.CreateExercise(ctx, models.Exercise{Name: name, LoadUnit: unit})
	if err != nil {
		return nil, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	created[name] = e
	imp.log.Info("exercise created", "name", name, "load_unit", unit)
	return e, nil
}
