package storage

import (
	"context"
	"fmt"

	"github.com/claude/setlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// CreateSubMuscle inserts a submuscle.
func (db *DB) CreateSubMuscle(ctx context.Context, name string) (*models.SubMuscle, error) {
	sm := &models.SubMuscle{Name: name}
	err := db.q.QueryRow(ctx, `INSERT INTO submuscles (name) VALUES ($1) RETURNING id`, name).Scan(&sm.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting submuscle: %w", mapErr(err))
	}
	return sm, nil
}

// ListSubMuscles returns all submuscles ordered by name.
func (db *DB) ListSubMuscles(ctx context.Context) ([]models.SubMuscle, error) {
	rows, err := db.q.Query(ctx, `SELECT id, name FROM submuscles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying submuscles: %w", err)
	}
	defer rows.Close()

	result := []models.SubMuscle{}
	for rows.Next() {
		var sm models.SubMuscle
		if err := rows.Scan(&sm.ID, &sm.Name); err != nil {
			return nil, fmt.Errorf("scanning submuscle: %w", err)
		}
		result = append(result, sm)
	}
	return result, rows.Err()
}

// CreateMuscle inserts a muscle with its submuscle links.
func (db *DB) CreateMuscle(ctx context.Context, m models.Muscle) (*models.Muscle, error) {
	err := db.withTx(ctx, func(tx *DB) error {
		if err := tx.q.QueryRow(ctx, `INSERT INTO muscles (name) VALUES ($1) RETURNING id`, m.Name).Scan(&m.ID); err != nil {
			return fmt.Errorf("inserting muscle: %w", mapErr(err))
		}
		return tx.link(ctx, "muscle_submuscles", "muscle_id", "submuscle_id", m.ID, m.SubMuscleIDs)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMuscles returns all muscles ordered by name.
func (db *DB) ListMuscles(ctx context.Context) ([]models.Muscle, error) {
	rows, err := db.q.Query(ctx, `
		SELECT m.id, m.name,
		       COALESCE((SELECT array_agg(submuscle_id ORDER BY submuscle_id)
		                 FROM muscle_submuscles WHERE muscle_id = m.id), '{}')
		FROM muscles m
		ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("querying muscles: %w", err)
	}
	defer rows.Close()

	result := []models.Muscle{}
	for rows.Next() {
		var m models.Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.SubMuscleIDs); err != nil {
			return nil, fmt.Errorf("scanning muscle: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// CreateMuscularGroup inserts a muscular group with its muscle links.
func (db *DB) CreateMuscularGroup(ctx context.Context, g models.MuscularGroup) (*models.MuscularGroup, error) {
	err := db.withTx(ctx, func(tx *DB) error {
		if err := tx.q.QueryRow(ctx, `INSERT INTO muscular_groups (name) VALUES ($1) RETURNING id`, g.Name).Scan(&g.ID); err != nil {
			return fmt.Errorf("inserting muscular group: %w", mapErr(err))
		}
		return tx.link(ctx, "muscular_group_muscles", "group_id", "muscle_id", g.ID, g.MuscleIDs)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListMuscularGroups returns all muscular groups ordered by name.
func (db *DB) ListMuscularGroups(ctx context.Context) ([]models.MuscularGroup, error) {
	rows, err := db.q.Query(ctx, `
		SELECT g.id, g.name,
		       COALESCE((SELECT array_agg(muscle_id ORDER BY muscle_id)
		                 FROM muscular_group_muscles WHERE group_id = g.id), '{}')
		FROM muscular_groups g
		ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("querying muscular groups: %w", err)
	}
	defer rows.Close()

	result := []models.MuscularGroup{}
	for rows.Next() {
		var g models.MuscularGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.MuscleIDs); err != nil {
			return nil, fmt.Errorf("scanning muscular group: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// CreateExercise inserts an exercise and its tags.
func (db *DB) CreateExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error) {
	err := db.withTx(ctx, func(tx *DB) error {
		err := tx.q.QueryRow(ctx,
			`INSERT INTO exercises (name, load_unit, description, image_url)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			e.Name, string(e.LoadUnit), e.Description, e.ImageURL).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting exercise: %w", mapErr(err))
		}
		return tx.linkExerciseTags(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateExercise replaces an exercise's fields and tags.
func (db *DB) UpdateExercise(ctx context.Context, e models.Exercise) error {
	return db.withTx(ctx, func(tx *DB) error {
		tag, err := tx.q.Exec(ctx,
			`UPDATE exercises SET name = $1, load_unit = $2, description = $3, image_url = $4 WHERE id = $5`,
			e.Name, string(e.LoadUnit), e.Description, e.ImageURL, e.ID)
		if err != nil {
			return fmt.Errorf("updating exercise: %w", mapErr(err))
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("exercise %d: %w", e.ID, mapErr(pgx.ErrNoRows))
		}
		for _, table := range []string{"exercise_submuscles", "exercise_muscles", "exercise_groups"} {
			if _, err := tx.q.Exec(ctx, `DELETE FROM `+table+` WHERE exercise_id = $1`, e.ID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return tx.linkExerciseTags(ctx, e)
	})
}

func (db *DB) linkExerciseTags(ctx context.Context, e models.Exercise) error {
	if err := db.link(ctx, "exercise_submuscles", "exercise_id", "submuscle_id", e.ID, e.SubMuscleIDs); err != nil {
		return err
	}
	if err := db.link(ctx, "exercise_muscles", "exercise_id", "muscle_id", e.ID, e.MuscleIDs); err != nil {
		return err
	}
	return db.link(ctx, "exercise_groups", "exercise_id", "group_id", e.ID, e.GroupIDs)
}

// link inserts (owner, target) pairs into a join table.
func (db *DB) link(ctx context.Context, table, ownerCol, targetCol string, ownerID int64, targets []int64) error {
	if len(targets) == 0 {
		return nil
	}
	_, err := db.q.Exec(ctx,
		`INSERT INTO `+table+` (`+ownerCol+`, `+targetCol+`)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		ownerID, targets)
	if err != nil {
		return fmt.Errorf("linking %s: %w", table, mapErr(err))
	}
	return nil
}

const exerciseColumns = `
	e.id, e.name, e.load_unit, e.description, e.image_url, e.created_at,
	COALESCE((SELECT array_agg(submuscle_id ORDER BY submuscle_id) FROM exercise_submuscles WHERE exercise_id = e.id), '{}'),
	COALESCE((SELECT array_agg(muscle_id ORDER BY muscle_id) FROM exercise_muscles WHERE exercise_id = e.id), '{}'),
	COALESCE((SELECT array_agg(group_id ORDER BY group_id) FROM exercise_groups WHERE exercise_id = e.id), '{}')`

// GetExercise retrieves an exercise by ID.
func (db *DB) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	row := db.q.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = $1`, id)
	e, err := scanExercise(row)
	if err != nil {
		return nil, fmt.Errorf("querying exercise %d: %w", id, mapErr(err))
	}
	return e, nil
}

// GetExerciseByName retrieves an exercise by its unique name.
func (db *DB) GetExerciseByName(ctx context.Context, name string) (*models.Exercise, error) {
	row := db.q.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises e WHERE e.name = $1`, name)
	e, err := scanExercise(row)
	if err != nil {
		return nil, fmt.Errorf("querying exercise %q: %w", name, mapErr(err))
	}
	return e, nil
}

// ListExercises returns the catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.q.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises e ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func scanExercise(row pgx.Row) (*models.Exercise, error) {
	var e models.Exercise
	var unit string
	if err := row.Scan(&e.ID, &e.Name, &unit, &e.Description, &e.ImageURL, &e.CreatedAt,
		&e.SubMuscleIDs, &e.MuscleIDs, &e.GroupIDs); err != nil {
		return nil, err
	}
	e.LoadUnit = models.LoadUnit(unit)
	return &e, nil
}
