package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/setlog/internal/metrics"
	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/storage/sqlite"
	"github.com/claude/setlog/internal/training"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportCSV = `"Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;1
"2. Dips · Bodyweight · 10 reps"
#;KG;REPS;RIR
1;+10;10;1

"Legs · Day 2";"2026-02-19 16:54 h";"0:58 hr"
"1. Hack Squats · Machine · 8 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1,5
`

func setup(t *testing.T) (context.Context, *sqlite.DB, int64) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "setlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	user, err := store.GetOrCreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	return ctx, store, user
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestImport writes every parsed session with its working sets.
func TestImport(t *testing.T) {
	ctx, store, user := setup(t)
	inst := metrics.NewTest()

	stats, err := New(store, discard(), inst, false).Import(ctx, user, strings.NewReader(exportCSV))
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		SessionsParsed:   2,
		SessionsImported: 2,
		SetsImported:     5,
		WarmupsSkipped:   1,
		ExercisesCreated: 3,
	}, stats)
	assert.Equal(t, 2.0, testutil.ToFloat64(inst.CounterImportedSessions))

	sessions, err := store.ListSessions(ctx, user)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC), sessions[0].Date)
	assert.Equal(t, time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC), sessions[1].Date)

	records, err := store.ListExerciseRecords(ctx, user, sessions[1].ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Bench Press (Barbell)", records[0].ExerciseName)
	assert.Equal(t, 102.5, records[0].Load)
	assert.Equal(t, 6, records[0].Repetitions)
	assert.Equal(t, "RIR 0", records[0].Notes)
	assert.Equal(t, "Dips (Bodyweight)", records[2].ExerciseName)
	assert.Equal(t, models.LoadUnitBodyweight, records[2].LoadUnit)
	assert.Equal(t, 10.0, records[2].Load)

	legs, err := store.ListExerciseRecords(ctx, user, sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "RIR 1.5", legs[1].Notes)
	assert.Equal(t, training.StatusFinished, training.Classify(legs).Status)
}

// TestImportSkipsLoggedDates leaves dates that already have a session alone.
func TestImportSkipsLoggedDates(t *testing.T) {
	ctx, store, user := setup(t)
	_, err := store.CreateSession(ctx, user, time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	stats, err := New(store, discard(), nil, false).Import(ctx, user, strings.NewReader(exportCSV))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SessionsSkipped)
	assert.Equal(t, 1, stats.SessionsImported)
	assert.Equal(t, 2, stats.SetsImported)

	again, err := New(store, discard(), nil, false).Import(ctx, user, strings.NewReader(exportCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, again.SessionsSkipped)
	assert.Zero(t, again.SessionsImported)
	assert.Zero(t, again.ExercisesCreated)
}

// TestImportReusesCatalogExercises matches exercises by catalog name.
func TestImportReusesCatalogExercises(t *testing.T) {
	ctx, store, user := setup(t)
	bench, err := store.CreateExercise(ctx, models.Exercise{Name: "Bench Press (Barbell)", LoadUnit: models.LoadUnitKilograms})
	require.NoError(t, err)

	stats, err := New(store, discard(), nil, false).Import(ctx, user, strings.NewReader(exportCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ExercisesCreated)

	history, err := store.ListExerciseHistory(ctx, user, bench.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

// TestImportDryRun counts without writing.
func TestImportDryRun(t *testing.T) {
	ctx, store, user := setup(t)
	_, err := store.CreateExercise(ctx, models.Exercise{Name: "Hack Squats (Machine)", LoadUnit: models.LoadUnitKilograms})
	require.NoError(t, err)
	inst := metrics.NewTest()

	stats, err := New(store, discard(), inst, true).Import(ctx, user, strings.NewReader(exportCSV))
	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	assert.Equal(t, 2, stats.SessionsImported)
	assert.Equal(t, 5, stats.SetsImported)
	assert.Equal(t, 1, stats.WarmupsSkipped)
	assert.Equal(t, 2, stats.ExercisesCreated)
	assert.Zero(t, testutil.ToFloat64(inst.CounterImportedSessions))

	sessions, err := store.ListSessions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = store.GetExerciseByName(ctx, "Dips (Bodyweight)")
	assert.ErrorIs(t, err, training.ErrNotFound)
}

type failingRecordsStore struct{ training.Store }

func (failingRecordsStore) CreateExerciseRecords(context.Context, []models.ExerciseRecord) (int64, error) {
	return 0, errors.New("disk full")
}

type failingTxStore struct{ training.Store }

func (s failingTxStore) WithinOwnerTx(ctx context.Context, owner int64, fn func(tx training.Store) error) error {
	return s.Store.WithinOwnerTx(ctx, owner, func(tx training.Store) error {
		return fn(failingRecordsStore{tx})
	})
}

// TestImportRollsBackSession leaves no session or exercise behind when a
// record insert fails.
func TestImportRollsBackSession(t *testing.T) {
	ctx, store, user := setup(t)

	stats, err := New(failingTxStore{store}, discard(), nil, false).Import(ctx, user, strings.NewReader(exportCSV))
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, stats.SessionsImported)

	sessions, err := store.ListSessions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = store.GetExerciseByName(ctx, "Bench Press (Barbell)")
	assert.ErrorIs(t, err, training.ErrNotFound)
}

func TestImportParseError(t *testing.T) {
	ctx, store, user := setup(t)
	_, err := New(store, discard(), nil, false).Import(ctx, user, strings.NewReader("1;100;5;1\n"))
	assert.ErrorContains(t, err, "parsing export")
}
