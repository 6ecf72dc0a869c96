package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sex selects the BMR constant.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Activity is the TDEE activity level.
type Activity string

const (
	ActivitySedentary Activity = "sedentary"
	ActivityLight     Activity = "light"
	ActivityModerate  Activity = "moderate"
	ActivityVery      Activity = "very"
	ActivityAthlete   Activity = "athlete"
)

// GoalMode selects how the calorie target is derived from TDEE.
type GoalMode string

const (
	GoalModeRate    GoalMode = "rate"
	GoalModePercent GoalMode = "percent"
	GoalModeSimple  GoalMode = "simple"
)

// SimpleGoal is the goal used by GoalModeSimple.
type SimpleGoal string

const (
	SimpleGoalLose     SimpleGoal = "lose"
	SimpleGoalMaintain SimpleGoal = "maintain"
	SimpleGoalGain     SimpleGoal = "gain"
)

// OnboardingState holds the answers used to compute macro targets.
// Weight is in Units; Percent is signed (-15 means -15%); Rate is units/week.
type OnboardingState struct {
	Units      Units      `json:"units"`
	Sex        Sex        `json:"sex"`
	Age        float64    `json:"age"`
	HeightCm   float64    `json:"heightCm"`
	Weight     float64    `json:"weight"`
	Activity   Activity   `json:"activity"`
	GoalMode   GoalMode   `json:"goalMode"`
	SimpleGoal SimpleGoal `json:"simpleGoal"`
	Percent    float64    `json:"percent"`
	Rate       float64    `json:"rate"`
}

// StoreState is everything the app persists for a device. It is stored
// locally and optionally synced as an opaque snapshot.
type StoreState struct {
	Units                  Units               `json:"units"`
	SelectedDate           string              `json:"selectedDate"`
	Onboarding             *OnboardingState    `json:"onboarding"`
	Targets                *MacroTargets       `json:"targets"`
	Logs                   map[string]DailyLog `json:"logs"`
	WorkoutDays            []WorkoutDay        `json:"workoutDays"`
	Indicators             map[string]string   `json:"indicators"`
	StrengthTrackerEnabled bool                `json:"strengthTrackerEnabled"`
	BodyweightOverride     *float64            `json:"bodyweightOverride"`
	WeightLogs             map[string]float64  `json:"weightLogs"`
}

// DefaultStoreState returns the state of a fresh install on the given day.
func DefaultStoreState(now time.Time) StoreState {
	return StoreState{
		Units:                  UnitsLb,
		SelectedDate:           now.Format("2006-01-02"),
		Logs:                   map[string]DailyLog{},
		WorkoutDays:            []WorkoutDay{},
		Indicators:             map[string]string{},
		StrengthTrackerEnabled: true,
		WeightLogs:             map[string]float64{},
	}
}

// DecodeStoreState parses a snapshot, layering it over the defaults so
// fields missing from older snapshots keep their default values.
func DecodeStoreState(data []byte, now time.Time) (StoreState, error) {
	s := DefaultStoreState(now)
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultStoreState(now), fmt.Errorf("decoding store state: %w", err)
	}
	if s.Logs == nil {
		s.Logs = map[string]DailyLog{}
	}
	if s.Indicators == nil {
		s.Indicators = map[string]string{}
	}
	if s.WeightLogs == nil {
		s.WeightLogs = map[string]float64{}
	}
	return s, nil
}

// EffectiveUnits returns the display units, falling back to the onboarding
// answer and then pounds.
func (s *StoreState) EffectiveUnits() Units {
	if s.Units.Valid() {
		return s.Units
	}
	if s.Onboarding != nil && s.Onboarding.Units.Valid() {
		return s.Onboarding.Units
	}
	return UnitsLb
}

// Bodyweight returns the bodyweight used for strength tracking: the manual
// override if set, otherwise the onboarding weight. Zero means unknown.
func (s *StoreState) Bodyweight() float64 {
	if s.BodyweightOverride != nil {
		return *s.BodyweightOverride
	}
	if s.Onboarding != nil {
		return s.Onboarding.Weight
	}
	return 0
}

// DailyLog returns the food log for date, or an empty one.
func (s *StoreState) DailyLog(date string) DailyLog {
	if l, ok := s.Logs[date]; ok {
		return l
	}
	return DailyLog{Date: date, MealGroups: []MealGroup{}}
}

// MarkDay flags date as having activity in the calendar.
func (s *StoreState) MarkDay(date string) {
	if s.Indicators == nil {
		s.Indicators = map[string]string{}
	}
	s.Indicators[date] = "dot"
}

// SetWeightLog records a weigh-in, replacing any previous one for date.
func (s *StoreState) SetWeightLog(date string, weight float64) error {
	if date == "" || !(weight > 0) {
		return fmt.Errorf("invalid weigh-in %q=%v", date, weight)
	}
	if s.WeightLogs == nil {
		s.WeightLogs = map[string]float64{}
	}
	s.WeightLogs[date] = weight
	return nil
}

// RemoveWeightLog deletes the weigh-in for date.
func (s *StoreState) RemoveWeightLog(date string) {
	delete(s.WeightLogs, date)
}

// FindWorkoutDay returns the day with the given id or name.
func (s *StoreState) FindWorkoutDay(idOrName string) *WorkoutDay {
	for i := range s.WorkoutDays {
		if s.WorkoutDays[i].ID == idOrName || s.WorkoutDays[i].Name == idOrName {
			return &s.WorkoutDays[i]
		}
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of s that shares no maps, slices or pointers
// with it.
func (s StoreState) Clone() StoreState {
	c := s
	c.Onboarding = clonePtr(s.Onboarding)
	c.Targets = clonePtr(s.Targets)
	c.BodyweightOverride = clonePtr(s.BodyweightOverride)

	if s.Logs != nil {
		c.Logs = make(map[string]DailyLog, len(s.Logs))
		for date, l := range s.Logs {
			c.Logs[date] = l.Clone()
		}
	}
	if s.WorkoutDays != nil {
		c.WorkoutDays = make([]WorkoutDay, len(s.WorkoutDays))
		for i, d := range s.WorkoutDays {
			c.WorkoutDays[i] = d.Clone()
		}
	}
	if s.Indicators != nil {
		c.Indicators = make(map[string]string, len(s.Indicators))
		for k, v := range s.Indicators {
			c.Indicators[k] = v
		}
	}
	if s.WeightLogs != nil {
		c.WeightLogs = make(map[string]float64, len(s.WeightLogs))
		for k, v := range s.WeightLogs {
			c.WeightLogs[k] = v
		}
	}
	return c
}
