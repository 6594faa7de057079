package training

import (
	"context"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence boundary. Every per-user query is scoped by the
// owner argument: rows belonging to another user are reported as ErrNotFound,
// never as a permission error, so their existence does not leak.
//
// Implementations: storage.DB (Postgres) and sqlite.DB.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error)

	// Catalog
	CreateSubMuscle(ctx context.Context, name string) (*models.SubMuscle, error)
	ListSubMuscles(ctx context.Context) ([]models.SubMuscle, error)
	CreateMuscle(ctx context.Context, m models.Muscle) (*models.Muscle, error)
	ListMuscles(ctx context.Context) ([]models.Muscle, error)
	CreateMuscularGroup(ctx context.Context, g models.MuscularGroup) (*models.MuscularGroup, error)
	ListMuscularGroups(ctx context.Context) ([]models.MuscularGroup, error)
	CreateExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, e models.Exercise) error
	GetExercise(ctx context.Context, id int64) (*models.Exercise, error)
	GetExerciseByName(ctx context.Context, name string) (*models.Exercise, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)

	// Templates. GetTemplate returns lines in line order.
	CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error)
	GetTemplate(ctx context.Context, id int64) (*models.Template, error)
	ListTemplates(ctx context.Context, userID int64) ([]models.Template, error)
	AddTemplateLine(ctx context.Context, line models.TemplateLine) (*models.TemplateLine, error)
	UpdateTemplateLine(ctx context.Context, templateID, lineID int64, sets int) error

	// Sessions. FindSessions orders by date ascending, then creation order.
	CreateSession(ctx context.Context, owner int64, date time.Time) (*models.Session, error)
	GetSession(ctx context.Context, owner int64, id uuid.UUID) (*models.Session, error)
	FindSessions(ctx context.Context, owner int64, dates []time.Time) ([]models.Session, error)
	ListSessions(ctx context.Context, owner int64) ([]models.Session, error)

	// Records. ListExerciseRecords returns records in creation order.
	CreateExerciseRecord(ctx context.Context, rec models.ExerciseRecord) (*models.ExerciseRecord, error)
	CreateExerciseRecords(ctx context.Context, recs []models.ExerciseRecord) (int64, error)
	ListExerciseRecords(ctx context.Context, owner int64, sessionID uuid.UUID) ([]models.ExerciseRecord, error)
	UpdateExerciseRecord(ctx context.Context, owner, id int64, upd models.RecordUpdate) (*models.ExerciseRecord, error)
	ListExerciseHistory(ctx context.Context, owner, exerciseID int64) ([]models.ExerciseRecord, error)

	// Body weight
	CreateWeight(ctx context.Context, w models.WeightEntry) (*models.WeightEntry, error)
	ListWeights(ctx context.Context, owner int64) ([]models.WeightEntry, error)
	UpdateWeight(ctx context.Context, w models.WeightEntry) error

	// WithinOwnerTx runs fn in a single transaction that is serialized
	// against other WithinOwnerTx calls for the same owner. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinOwnerTx(ctx context.Context, owner int64, fn func(tx Store) error) error
}
