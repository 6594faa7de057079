package training

import "github.com/claude/setlog/internal/models"

// Status is the derived progress of an exercise or a whole session.
type Status string

const (
	StatusPending  Status = "pending"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

// ExerciseProgress is the classification of one exercise's records within a
// session.
type ExerciseProgress struct {
	ExerciseID   int64                   `json:"exercise_id"`
	ExerciseName string                  `json:"exercise_name"`
	LoadUnit     models.LoadUnit         `json:"load_unit"`
	Count        int                     `json:"count"`
	Entries      []models.ExerciseRecord `json:"entries"`
	Values       []float64               `json:"values"`
	Status       Status                  `json:"status"`
}

// Progress is the classification of a session's records, one group per
// exercise in order of first appearance.
type Progress struct {
	Exercises []ExerciseProgress `json:"exercises"`
	Status    Status             `json:"status"`
}

// ByExercise indexes the groups by exercise ID.
func (p Progress) ByExercise() map[int64]ExerciseProgress {
	m := make(map[int64]ExerciseProgress, len(p.Exercises))
	for _, e := range p.Exercises {
		m[e.ExerciseID] = e
	}
	return m
}

// Classify groups records by exercise ID and derives a status per group.
// Record order within a group is preserved. It has no side effects.
func Classify(records []models.ExerciseRecord) Progress {
	index := make(map[int64]int)
	groups := make([]ExerciseProgress, 0)
	for _, rec := range records {
		i, ok := index[rec.ExerciseID]
		if !ok {
			i = len(groups)
			index[rec.ExerciseID] = i
			groups = append(groups, ExerciseProgress{
				ExerciseID:   rec.ExerciseID,
				ExerciseName: rec.ExerciseName,
				LoadUnit:     rec.LoadUnit,
			})
		}
		g := &groups[i]
		g.Count++
		g.Entries = append(g.Entries, rec)
		g.Values = append(g.Values, rec.Value())
	}

	for i := range groups {
		groups[i].Status = statusOf(groups[i].Values)
	}
	return Progress{Exercises: groups, Status: sessionStatus(groups)}
}

// statusOf applies finished > started > pending precedence. An empty slice is
// pending.
func statusOf(values []float64) Status {
	anyDone, allDone := false, len(values) > 0
	for _, v := range values {
		if v != 0 {
			anyDone = true
		} else {
			allDone = false
		}
	}
	switch {
	case allDone:
		return StatusFinished
	case anyDone:
		return StatusStarted
	default:
		return StatusPending
	}
}

func sessionStatus(groups []ExerciseProgress) Status {
	if len(groups) == 0 {
		return StatusPending
	}
	pending, finished := 0, 0
	for _, g := range groups {
		switch g.Status {
		case StatusPending:
			pending++
		case StatusFinished:
			finished++
		}
	}
	switch {
	case finished == len(groups):
		return StatusFinished
	case pending == len(groups):
		return StatusPending
	default:
		return StatusStarted
	}
}
