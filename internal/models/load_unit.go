package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LoadUnit is the unit an exercise's load is measured in.
type LoadUnit string

// Canonical load units.
const (
	LoadUnitKilograms  LoadUnit = "kg"
	LoadUnitKilometers LoadUnit = "km"
	LoadUnitMeters     LoadUnit = "m"
	LoadUnitMinutes    LoadUnit = "min"
	LoadUnitSeconds    LoadUnit = "sec"
	LoadUnitBodyweight LoadUnit = "bodyweight"
)

// loadUnitMap maps lowercased spellings seen in exports and older clients to
// their canonical unit.
var loadUnitMap = map[string]LoadUnit{
	"kg":        LoadUnitKilograms,
	"kgs":       LoadUnitKilograms,
	"kilos":     LoadUnitKilograms,
	"kilograms": LoadUnitKilograms,

	"km":         LoadUnitKilometers,
	"kilometers": LoadUnitKilometers,

	"m":      LoadUnitMeters,
	"meters": LoadUnitMeters,
	"metres": LoadUnitMeters,

	"min":     LoadUnitMinutes,
	"mins":    LoadUnitMinutes,
	"minutes": LoadUnitMinutes,

	"sec":     LoadUnitSeconds,
	"secs":    LoadUnitSeconds,
	"s":       LoadUnitSeconds,
	"seconds": LoadUnitSeconds,

	"bodyweight":  LoadUnitBodyweight,
	"body_weight": LoadUnitBodyweight,
	"body weight": LoadUnitBodyweight,
	"bod":         LoadUnitBodyweight,
	"bw":          LoadUnitBodyweight,
}

// NormalizeLoadUnit returns the canonical unit for s. The second return value
// is false when s is not a known spelling.
func NormalizeLoadUnit(s string) (LoadUnit, bool) {
	u, ok := loadUnitMap[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

// ParseLoadUnit is NormalizeLoadUnit with an error for unknown units.
func ParseLoadUnit(s string) (LoadUnit, error) {
	u, ok := NormalizeLoadUnit(s)
	if !ok {
		return "", fmt.Errorf("unknown load unit %q", s)
	}
	return u, nil
}

// Valid reports whether u is one of the canonical units.
func (u LoadUnit) Valid() bool {
	switch u {
	case LoadUnitKilograms, LoadUnitKilometers, LoadUnitMeters,
		LoadUnitMinutes, LoadUnitSeconds, LoadUnitBodyweight:
		return true
	}
	return false
}

// UnmarshalJSON accepts any known spelling.
func (u *LoadUnit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLoadUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
