package models

import (
	"fmt"
	"math"
	"sort"
)

// Units is the weight unit system a value is expressed in.
type Units string

const (
	UnitsLb Units = "lb"
	UnitsKg Units = "kg"
)

// Valid reports whether u is one of the supported unit systems.
func (u Units) Valid() bool {
	return u == UnitsLb || u == UnitsKg
}

// WorkoutExerciseLog records the weight lifted for an exercise on one date.
type WorkoutExerciseLog struct {
	Date   string  `json:"date"` // yyyy-MM-dd
	Weight float64 `json:"weight"`
}

// WorkoutExercise is a movement within a WorkoutDay. Reps is free text
// ("8-12", "5x5", "10"); Logs holds at most one entry per date.
type WorkoutExercise struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Sets        int                  `json:"sets"`
	Reps        string               `json:"reps"`
	TrackWeight bool                 `json:"trackWeight"`
	Logs        []WorkoutExerciseLog `json:"logs"`
}

// SetLog records weight for date, replacing any existing log on that date.
func (e *WorkoutExercise) SetLog(date string, weight float64) error {
	if date == "" {
		return fmt.Errorf("log date is required")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return fmt.Errorf("log weight must be a positive number, got %v", weight)
	}
	logs := make([]WorkoutExerciseLog, 0, len(e.Logs)+1)
	for _, l := range e.Logs {
		if l.Date != date {
			logs = append(logs, l)
		}
	}
	e.Logs = append(logs, WorkoutExerciseLog{Date: date, Weight: weight})
	return nil
}

// RemoveLog deletes the log for date. Returns false if there was none.
func (e *WorkoutExercise) RemoveLog(date string) bool {
	removed := false
	logs := e.Logs[:0]
	for _, l := range e.Logs {
		if l.Date == date {
			removed = true
			continue
		}
		logs = append(logs, l)
	}
	e.Logs = logs
	return removed
}

// LatestLog returns the most recent log by date, or nil when there are none.
func (e *WorkoutExercise) LatestLog() *WorkoutExerciseLog {
	var latest *WorkoutExerciseLog
	for i := range e.Logs {
		if latest == nil || e.Logs[i].Date > latest.Date {
			latest = &e.Logs[i]
		}
	}
	return latest
}

// WorkoutDay is a named session template reused across calendar dates.
// Weekday is nil for standalone days, otherwise 0 (Sunday) through 6.
type WorkoutDay struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Weekday   *int              `json:"weekday"`
	SortOrder int               `json:"sortOrder"`
	Exercises []WorkoutExercise `json:"exercises"`
}

// FindExercise returns the exercise with the given id or case-sensitive name.
func (d *WorkoutDay) FindExercise(idOrName string) *WorkoutExercise {
	for i := range d.Exercises {
		if d.Exercises[i].ID == idOrName || d.Exercises[i].Name == idOrName {
			return &d.Exercises[i]
		}
	}
	return nil
}

// SortWorkoutDays orders days by SortOrder, keeping insertion order for ties.
func SortWorkoutDays(days []WorkoutDay) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].SortOrder < days[j].SortOrder
	})
}

// Clone returns a deep copy of d.
func (d WorkoutDay) Clone() WorkoutDay {
	c := d
	c.Weekday = clonePtr(d.Weekday)
	if d.Exercises == nil {
		return c
	}
	c.Exercises = make([]WorkoutExercise, len(d.Exercises))
	for i, ex := range d.Exercises {
		if ex.Logs != nil {
			ex.Logs = append([]WorkoutExerciseLog(nil), ex.Logs...)
		}
		c.Exercises[i] = ex
	}
	return c
}
