// Package strength computes a bodyweight-relative strength index from
// logged working weights.
//
// Each log is turned into an Epley e1RM, divided by bodyweight, and then
// divided by the expected ratio of its movement profile so that a curl and a
// deadlift land on a comparable scale. Values are averaged per day and the
// earliest and latest three days are compared to summarize the trend.
//
// All functions are pure and safe for concurrent use.
package strength

import (
	"fmt"
	"math"
	"sort"

	"github.com/meltforce/flexlog/internal/models"
)

const (
	DefaultMinDistinctDays = 4
	DefaultMinTotalEntries = 8

	// minExpectedRelative bounds the normalization divisor.
	minExpectedRelative = 0.25
	// trendWindow is the number of days averaged for baseline and current.
	trendWindow = 3
)

const (
	ReasonBodyweightRequired = "Add your bodyweight to enable strength tracking."
	ReasonNoEntries          = "Log exercise weights (and enable weight tracking on exercises) to see your strength trend."
)

// Point is one day's aggregated strength index.
type Point struct {
	Date    string  `json:"date"`
	Index   float64 `json:"index"`
	Entries int     `json:"entries"`
}

// Result is the outcome of ComputeSeries. When OK is false, Reason says why
// and Baseline, Current and ChangePct are nil.
type Result struct {
	Series       []Point  `json:"series"`
	DistinctDays int      `json:"distinctDays"`
	TotalEntries int      `json:"totalEntries"`
	Baseline     *float64 `json:"baseline,omitempty"`
	Current      *float64 `json:"current,omitempty"`
	ChangePct    *float64 `json:"changePct,omitempty"`
	OK           bool     `json:"ok"`
	Reason       string   `json:"reason,omitempty"`
}

// Params are the inputs of ComputeSeries. Units applies to exercise logs.
// A Bodyweight that is zero, negative or NaN means unknown. Zero or negative
// thresholds use the defaults.
type Params struct {
	WorkoutDays     []models.WorkoutDay `json:"workoutDays"`
	Units           models.Units        `json:"units"`
	Bodyweight      float64             `json:"bodyweight"`
	BodyweightUnits models.Units        `json:"bodyweightUnits"`
	MinDistinctDays int                 `json:"minDistinctDays,omitempty"`
	MinTotalEntries int                 `json:"minTotalEntries,omitempty"`
}

type rawEntry struct {
	date    string
	weight  float64
	reps    float64
	profile MovementProfile
}

// collectEntries walks every weight-tracked exercise. Reps come from the
// exercise's current prescription since logs only carry weight.
func collectEntries(days []models.WorkoutDay) []rawEntry {
	var entries []rawEntry
	for _, day := range days {
		for _, ex := range day.Exercises {
			if !ex.TrackWeight {
				continue
			}
			reps := EstimateReps(ex.Reps)
			profile := Classify(ex.Name)
			for _, l := range ex.Logs {
				if l.Date == "" || l.Weight == 0 {
					continue
				}
				entries = append(entries, rawEntry{date: l.Date, weight: l.Weight, reps: reps, profile: profile})
			}
		}
	}
	return entries
}

func (p Params) thresholds() (minDays, minEntries int) {
	minDays, minEntries = p.MinDistinctDays, p.MinTotalEntries
	// At least one day is always required, so the trend windows are never empty.
	if minDays <= 0 {
		minDays = DefaultMinDistinctDays
	}
	if minEntries <= 0 {
		minEntries = DefaultMinTotalEntries
	}
	return minDays, minEntries
}

// ComputeSeries builds the per-day relative strength series and, when there
// is enough data, the baseline/current trend. It never fails; insufficient
// input is reported through Result.OK and Result.Reason.
func ComputeSeries(p Params) Result {
	if !(p.Bodyweight > 0) {
		return Result{Series: []Point{}, Reason: ReasonBodyweightRequired}
	}
	bw := ToCanonical(p.Bodyweight, p.BodyweightUnits)

	raw := collectEntries(p.WorkoutDays)
	if len(raw) == 0 {
		return Result{Series: []Point{}, Reason: ReasonNoEntries}
	}

	byDate := make(map[string][]float64)
	for _, e := range raw {
		oneRM := Estimate1RM(ToCanonical(e.weight, p.Units), e.reps)
		rel := oneRM / bw
		normalized := rel / math.Max(minExpectedRelative, e.profile.ExpectedRelative)
		if math.IsNaN(normalized) || math.IsInf(normalized, 0) || normalized <= 0 {
			continue
		}
		byDate[e.date] = append(byDate[e.date], normalized)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make([]Point, 0, len(dates))
	totalEntries := 0
	for _, d := range dates {
		vals := byDate[d]
		series = append(series, Point{Date: d, Index: mean(vals), Entries: len(vals)})
		totalEntries += len(vals)
	}

	res := Result{Series: series, DistinctDays: len(series), TotalEntries: totalEntries}

	minDays, minEntries := p.thresholds()
	if res.DistinctDays < minDays || res.TotalEntries < minEntries {
		res.Reason = fmt.Sprintf("Not enough data yet. Log weights on at least %d different days (and ideally %d+ total entries).", minDays, minEntries)
		return res
	}

	n := min(trendWindow, len(series))
	baseline := meanIndex(series[:n])
	current := meanIndex(series[len(series)-n:])
	res.Baseline = &baseline
	res.Current = &current
	if baseline > 0 {
		change := (current - baseline) / baseline * 100
		res.ChangePct = &change
	}
	res.OK = true
	return res
}

// ParamsFromState builds ComputeSeries inputs from a device's stored state.
// Logs and bodyweight are both read in the state's display units.
func ParamsFromState(s *models.StoreState) Params {
	units := s.EffectiveUnits()
	return Params{
		WorkoutDays:     s.WorkoutDays,
		Units:           units,
		Bodyweight:      s.Bodyweight(),
		BodyweightUnits: units,
	}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func meanIndex(points []Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Index
	}
	return sum / float64(len(points))
}
