package nutrition

import (
	"math"

	"github.com/meltforce/flexlog/internal/models"
)

// Totals are the summed calories and macros of a day's food log.
type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	Items    int     `json:"items"`
}

// DayTotals sums every item of every meal group in log.
func DayTotals(log models.DailyLog) Totals {
	var t Totals
	for _, g := range log.MealGroups {
		for _, it := range g.Items {
			t.Calories += it.Calories
			t.ProteinG += it.ProteinG
			t.CarbsG += it.CarbsG
			t.FatG += it.FatG
			t.Items++
		}
	}
	return t
}

// Remaining returns what is left of targets after totals, never below zero.
func Remaining(targets models.MacroTargets, totals Totals) models.MacroTargets {
	return models.MacroTargets{
		Calories: math.Max(0, targets.Calories-totals.Calories),
		ProteinG: math.Max(0, targets.ProteinG-totals.ProteinG),
		CarbsG:   math.Max(0, targets.CarbsG-totals.CarbsG),
		FatG:     math.Max(0, targets.FatG-totals.FatG),
	}
}
