package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in t's location and returns that
// date as UTC midnight. Sessions, records and weights store dates this way.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// Template is a reusable, named prescription of exercises and set counts.
type Template struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Ownership Ownership      `json:"ownership"`
	Notes     string         `json:"notes,omitempty"`
	Lines     []TemplateLine `json:"lines"`
}

// TemplateLine prescribes Sets sets of one exercise. Sets may be zero.
type TemplateLine struct {
	ID           int64  `json:"id"`
	TemplateID   int64  `json:"template_id"`
	ExerciseID   int64  `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	Sets         int    `json:"sets"`
}

// TotalSets is the number of records materializing the template creates.
func (t Template) TotalSets() int {
	n := 0
	for _, l := range t.Lines {
		n += l.Sets
	}
	return n
}

// Session is one dated training session. It has no stored status; progress
// is derived from its records on every read.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseRecord is one logged (or not yet logged) set.
//
// Zero repetitions and zero load is the placeholder state created by template
// materialization. Progress classification treats a set as performed only when
// Repetitions*Load is non-zero, so a set logged with zero load (for example an
// unweighted bodyweight movement) is indistinguishable from a placeholder.
type ExerciseRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	SessionID    uuid.UUID `json:"session_id"`
	Date         time.Time `json:"date"`
	ExerciseID   int64     `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	LoadUnit     LoadUnit  `json:"load_unit"`
	Repetitions  int       `json:"repetitions"`
	Load         float64   `json:"load"`
	Notes        string    `json:"notes,omitempty"`
}

// Value is Load*Repetitions, the "performed" signal for progress.
func (r ExerciseRecord) Value() float64 {
	return r.Load * float64(r.Repetitions)
}

// Performed reports whether the record has a non-zero value.
func (r ExerciseRecord) Performed() bool {
	return r.Value() != 0
}

// RecordUpdate holds the editable fields of an ExerciseRecord. Nil fields are
// left unchanged.
type RecordUpdate struct {
	Repetitions *int     `json:"repetitions,omitempty"`
	Load        *float64 `json:"load,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// WeightEntry is a body weight measurement in kg.
type WeightEntry struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"user_id"`
	Weight float64   `json:"weight"`
	Date   time.Time `json:"date"`
}
