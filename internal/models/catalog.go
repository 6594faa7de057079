package models

import "time"

// User is an authenticated identity. Everything a user logs is scoped by ID.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// SubMuscle is a part of a bigger muscle, such as one head of the triceps.
type SubMuscle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Muscle is a muscle such as the triceps.
type Muscle struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SubMuscleIDs []int64 `json:"submuscle_ids"`
}

// MuscularGroup is a group of muscles such as chest.
type MuscularGroup struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	MuscleIDs []int64 `json:"muscle_ids"`
}

// Exercise is a catalog entry such as bench press. Records reference it by ID,
// so renaming an exercise or editing its tags never changes past records.
type Exercise struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	LoadUnit     LoadUnit  `json:"load_unit"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url,omitempty"`
	SubMuscleIDs []int64   `json:"submuscle_ids"`
	MuscleIDs    []int64   `json:"muscle_ids"`
	GroupIDs     []int64   `json:"group_ids"`
	CreatedAt    time.Time `json:"created_at"`
}
