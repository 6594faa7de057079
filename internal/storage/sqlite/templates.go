package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/claude/setlog/internal/models"
)

// CreateTemplate inserts a template header. Lines are added separately.
func (db *DB) CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error) {
	err := db.q.QueryRowContext(ctx,
		`INSERT INTO templates (name, user_id, notes) VALUES (?, ?, ?) RETURNING id`,
		t.Name, t.Ownership.Nullable(), t.Notes).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting template: %w", mapErr(err))
	}
	t.Lines = []models.TemplateLine{}
	return &t, nil
}

// GetTemplate retrieves a template with its lines in line order.
func (db *DB) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	var t models.Template
	var userID *int64
	err := db.q.QueryRowContext(ctx,
		`SELECT id, name, user_id, notes FROM templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &userID, &t.Notes)
	if err != nil {
		return nil, fmt.Errorf("querying template %d: %w", id, mapErr(err))
	}
	t.Ownership = models.OwnershipFromNullable(userID)

	rows, err := db.q.QueryContext(ctx,
		`SELECT l.id, l.template_id, l.exercise_id, e.name, l.sets
		 FROM template_lines l
		 JOIN exercises e ON e.id = l.exercise_id
		 WHERE l.template_id = ?
		 ORDER BY l.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying template lines: %w", err)
	}
	defer rows.Close()

	t.Lines, err = scanTemplateLines(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns global templates and those owned by userID, ordered
// by name. Lines are included.
func (db *DB) ListTemplates(ctx context.Context, userID int64) ([]models.Template, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, name, user_id, notes FROM templates
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}

	result := []models.Template{}
	byID := make(map[int64]int)
	var args []any
	for rows.Next() {
		var t models.Template
		var owner *int64
		if err := rows.Scan(&t.ID, &t.Name, &owner, &t.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		t.Ownership = models.OwnershipFromNullable(owner)
		t.Lines = []models.TemplateLine{}
		byID[t.ID] = len(result)
		args = append(args, t.ID)
		result = append(result, t)
	}
	// The pool has one connection; release it before the next query.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	lineRows, err := db.q.QueryContext(ctx,
		`SELECT l.id, l.template_id, l.exercise_id, e.name, l.sets
		 FROM template_lines l
		 JOIN exercises e ON e.id = l.exercise_id
		 WHERE l.template_id IN (`+placeholders+`)
		 ORDER BY l.template_id, l.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying template lines: %w", err)
	}
	defer lineRows.Close()

	lines, err := scanTemplateLines(lineRows)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		i := byID[l.TemplateID]
		result[i].Lines = append(result[i].Lines, l)
	}
	return result, nil
}

// AddTemplateLine appends a line to a template.
func (db *DB) AddTemplateLine(ctx context.Context, line models.TemplateLine) (*models.TemplateLine, error) {
	err := db.withTx(ctx, func(tx *DB) error {
		err := tx.q.QueryRowContext(ctx,
			`INSERT INTO template_lines (template_id, exercise_id, sets) VALUES (?, ?, ?) RETURNING id`,
			line.TemplateID, line.ExerciseID, line.Sets).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("inserting template line: %w", mapErr(err))
		}
		err = tx.q.QueryRowContext(ctx, `SELECT name FROM exercises WHERE id = ?`, line.ExerciseID).Scan(&line.ExerciseName)
		if err != nil {
			return fmt.Errorf("querying exercise name: %w", mapErr(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateTemplateLine sets the set count of a line of templateID.
func (db *DB) UpdateTemplateLine(ctx context.Context, templateID, lineID int64, sets int) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE template_lines SET sets = ? WHERE id = ? AND template_id = ?`,
		sets, lineID, templateID)
	if err != nil {
		return fmt.Errorf("updating template line: %w", mapErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template line %d: %w", lineID, mapErr(sql.ErrNoRows))
	}
	return nil
}

func scanTemplateLines(rows *sql.Rows) ([]models.TemplateLine, error) {
	lines := []models.TemplateLine{}
	for rows.Next() {
		var l models.TemplateLine
		if err := rows.Scan(&l.ID, &l.TemplateID, &l.ExerciseID, &l.ExerciseName, &l.Sets); err != nil {
			return nil, fmt.Errorf("scanning template line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
