package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/setlog/internal/metrics"
	"github.com/claude/setlog/internal/models"
	"github.com/google/uuid"
)

// Service implements template materialization, progress classification and
// active-session resolution on top of a Store.
type Service struct {
	store Store
	log   *slog.Logger
	loc   *time.Location
	now   func() time.Time
	inst  *metrics.Instrumentation
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithInstrumentation records materializations and resolutions.
func WithInstrumentation(inst *metrics.Instrumentation) Option {
	return func(s *Service) { s.inst = inst }
}

// NewService creates a Service.
func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log,
		loc:   time.Local,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Today returns the current calendar date in the service's time zone.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now().In(s.loc))
}

// MaterializeTemplate creates a session dated today for owner with one
// zero-valued record per prescribed set of the template. The template must be
// global or owned by owner. The session and its records are written in one
// transaction, so either all rows exist afterwards or none do. Calling it
// again creates another session.
func (s *Service) MaterializeTemplate(ctx context.Context, owner, templateID int64) (*models.Session, error) {
	tmpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("loading template %d: %w", templateID, err)
	}
	if !tmpl.Ownership.VisibleTo(owner) {
		return nil, fmt.Errorf("template %d: %w", templateID, ErrNotFound)
	}

	checked := make(map[int64]bool)
	for _, line := range tmpl.Lines {
		if line.Sets < 0 {
			return nil, invalidf("template line %d has negative set count %d", line.ID, line.Sets)
		}
		if checked[line.ExerciseID] {
			continue
		}
		if _, err := s.store.GetExercise(ctx, line.ExerciseID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalidf("template line %d references missing exercise %d", line.ID, line.ExerciseID)
			}
			return nil, fmt.Errorf("loading exercise %d: %w", line.ExerciseID, err)
		}
		checked[line.ExerciseID] = true
	}

	today := s.Today()
	var session *models.Session
	var inserted int64
	err = s.store.WithinOwnerTx(ctx, owner, func(tx Store) error {
		var err error
		session, err = tx.CreateSession(ctx, owner, today)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		inserted, err = tx.CreateExerciseRecords(ctx, PlaceholderRecords(*tmpl, *session))
		if err != nil {
			return fmt.Errorf("creating placeholder records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("materializing template %d: %w", templateID, err)
	}

	s.inst.ObserveMaterialization(inserted)
	s.log.Info("template materialized",
		"template_id", templateID,
		"session_id", session.ID,
		"user_id", owner,
		"records", inserted,
	)
	return session, nil
}

// PlaceholderRecords expands a template into the zero-valued records for
// session: line order first, then ascending set index within a line.
func PlaceholderRecords(tmpl models.Template, session models.Session) []models.ExerciseRecord {
	records := make([]models.ExerciseRecord, 0, tmpl.TotalSets())
	for _, line := range tmpl.Lines {
		for range line.Sets {
			records = append(records, models.ExerciseRecord{
				UserID:       session.UserID,
				SessionID:    session.ID,
				Date:         session.Date,
				ExerciseID:   line.ExerciseID,
				ExerciseName: line.ExerciseName,
			})
		}
	}
	return records
}

// SessionProgress is a session together with its derived progress.
type SessionProgress struct {
	Session  models.Session `json:"session"`
	Progress Progress       `json:"progress"`
}

// ClassifySession loads the session's records and classifies them. It only
// reads from the store.
func (s *Service) ClassifySession(ctx context.Context, owner int64, sessionID uuid.UUID) (*SessionProgress, error) {
	session, err := s.store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	records, err := s.store.ListExerciseRecords(ctx, owner, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing records of session %s: %w", sessionID, err)
	}
	return &SessionProgress{Session: *session, Progress: Classify(records)}, nil
}

// ResolveActiveSession returns the session the user should continue on
// today: the latest session dated today or yesterday, or else a new empty
// session dated today. The second return value reports whether a session was
// created. Lookup and creation run in one per-owner transaction, so
// concurrent calls create at most one session.
func (s *Service) ResolveActiveSession(ctx context.Context, owner int64, today time.Time) (*models.Session, bool, error) {
	today = models.DateOf(today)
	window := []time.Time{today.AddDate(0, 0, -1), today}

	var session *models.Session
	created := false
	err := s.store.WithinOwnerTx(ctx, owner, func(tx Store) error {
		sessions, err := tx.FindSessions(ctx, owner, window)
		if err != nil {
			return fmt.Errorf("finding sessions: %w", err)
		}
		if len(sessions) > 0 {
			latest := sessions[len(sessions)-1]
			session = &latest
			return nil
		}
		session, err = tx.CreateSession(ctx, owner, today)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("resolving active session: %w", err)
	}

	s.inst.ObserveResolution(created)
	if created {
		s.log.Info("active session created", "session_id", session.ID, "user_id", owner, "date", today.Format(models.DateLayout))
	}
	return session, created, nil
}
