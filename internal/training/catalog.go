package training

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/setlog/internal/models"
)

// Actor is the identity performing a change. Admins may edit global entries.
type Actor struct {
	UserID int64
	Admin  bool
}

// CanEdit reports whether the actor may change something with ownership o.
func (a Actor) CanEdit(o models.Ownership) bool {
	if a.Admin {
		return true
	}
	return o.EditableBy(a.UserID)
}

// CreateExercise adds an exercise to the catalog.
func (s *Service) CreateExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error) {
	if err := validateExercise(&e); err != nil {
		return nil, err
	}
	created, err := s.store.CreateExercise(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("creating exercise %q: %w", e.Name, err)
	}
	return created, nil
}

// UpdateExercise replaces an exercise's name, unit, description and tags.
// Existing records keep pointing at the same exercise ID.
func (s *Service) UpdateExercise(ctx context.Context, e models.Exercise) error {
	if err := validateExercise(&e); err != nil {
		return err
	}
	if err := s.store.UpdateExercise(ctx, e); err != nil {
		return fmt.Errorf("updating exercise %d: %w", e.ID, err)
	}
	return nil
}

func validateExercise(e *models.Exercise) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return invalidf("exercise name is required")
	}
	if !e.LoadUnit.Valid() {
		return invalidf("unknown load unit %q", e.LoadUnit)
	}
	return nil
}

// GetExercise returns a catalog exercise.
func (s *Service) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

// ListExercises returns the catalog ordered by name.
func (s *Service) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx)
}

// CreateSubMuscle adds a submuscle to the catalog.
func (s *Service) CreateSubMuscle(ctx context.Context, name string) (*models.SubMuscle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("submuscle name is required")
	}
	return s.store.CreateSubMuscle(ctx, name)
}

// CreateMuscle adds a muscle to the catalog.
func (s *Service) CreateMuscle(ctx context.Context, m models.Muscle) (*models.Muscle, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, invalidf("muscle name is required")
	}
	return s.store.CreateMuscle(ctx, m)
}

// CreateMuscularGroup adds a muscular group to the catalog.
func (s *Service) CreateMuscularGroup(ctx context.Context, g models.MuscularGroup) (*models.MuscularGroup, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return nil, invalidf("muscular group name is required")
	}
	return s.store.CreateMuscularGroup(ctx, g)
}

// CreateTemplate creates an empty template with the given ownership.
func (s *Service) CreateTemplate(ctx context.Context, actor Actor, name, notes string, ownership models.Ownership) (*models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("template name is required")
	}
	if !actor.CanEdit(ownership) {
		return nil, fmt.Errorf("creating %s template: %w", ownership, ErrForbidden)
	}
	t, err := s.store.CreateTemplate(ctx, models.Template{Name: name, Notes: notes, Ownership: ownership})
	if err != nil {
		return nil, fmt.Errorf("creating template %q: %w", name, err)
	}
	return t, nil
}

// GetTemplate returns a template visible to userID.
func (s *Service) GetTemplate(ctx context.Context, userID, id int64) (*models.Template, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Ownership.VisibleTo(userID) {
		return nil, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// ListTemplates returns global templates and those owned by userID.
func (s *Service) ListTemplates(ctx context.Context, userID int64) ([]models.Template, error) {
	return s.store.ListTemplates(ctx, userID)
}

// AddTemplateLine appends an exercise with a set count to a template.
func (s *Service) AddTemplateLine(ctx context.Context, actor Actor, templateID, exerciseID int64, sets int) (*models.TemplateLine, error) {
	if sets < 0 {
		return nil, invalidf("sets must not be negative, got %d", sets)
	}
	if _, err := s.editableTemplate(ctx, actor, templateID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetExercise(ctx, exerciseID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidf("exercise %d does not exist", exerciseID)
		}
		return nil, err
	}
	line, err := s.store.AddTemplateLine(ctx, models.TemplateLine{TemplateID: templateID, ExerciseID: exerciseID, Sets: sets})
	if err != nil {
		return nil, fmt.Errorf("adding line to template %d: %w", templateID, err)
	}
	return line, nil
}

// UpdateTemplateLine changes the set count of a template line.
func (s *Service) UpdateTemplateLine(ctx context.Context, actor Actor, templateID, lineID int64, sets int) error {
	if sets < 0 {
		return invalidf("sets must not be negative, got %d", sets)
	}
	if _, err := s.editableTemplate(ctx, actor, templateID); err != nil {
		return err
	}
	if err := s.store.UpdateTemplateLine(ctx, templateID, lineID, sets); err != nil {
		return fmt.Errorf("updating line %d of template %d: %w", lineID, templateID, err)
	}
	return nil
}

func (s *Service) editableTemplate(ctx context.Context, actor Actor, id int64) (*models.Template, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading template %d: %w", id, err)
	}
	if !actor.Admin && !t.Ownership.VisibleTo(actor.UserID) {
		return nil, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	if !actor.CanEdit(t.Ownership) {
		return nil, fmt.Errorf("template %d: %w", id, ErrForbidden)
	}
	return t, nil
}
