package nutrition

import (
	"testing"

	"github.com/meltforce/flexlog/internal/models"
)

// TestDayTotals sums across meal groups.
func TestDayTotals(t *testing.T) {
	log := models.DailyLog{
		Date: "2024-05-01",
		MealGroups: []models.MealGroup{
			{Name: "Breakfast", Items: []models.FoodItem{
				{Name: "Oats", Calories: 300, ProteinG: 10, CarbsG: 54, FatG: 5},
				{Name: "Milk", Calories: 120, ProteinG: 8, CarbsG: 12, FatG: 5},
			}},
			{Name: "Lunch", Items: []models.FoodItem{
				{Name: "Chicken", Calories: 250, ProteinG: 45, FatG: 6},
			}},
			{Name: "Snacks"},
		},
	}
	got := DayTotals(log)
	want := Totals{Calories: 670, ProteinG: 63, CarbsG: 66, FatG: 16, Items: 3}
	if got != want {
		t.Errorf("DayTotals = %+v, want %+v", got, want)
	}

	if empty := DayTotals(models.DailyLog{}); empty != (Totals{}) {
		t.Errorf("empty log = %+v", empty)
	}
}

// TestRemaining verifies that overshooting a macro clamps it at zero.
func TestRemaining(t *testing.T) {
	targets := models.MacroTargets{Calories: 2000, ProteinG: 150, CarbsG: 200, FatG: 60}
	totals := Totals{Calories: 1500, ProteinG: 160, CarbsG: 120, FatG: 60}
	got := Remaining(targets, totals)
	want := models.MacroTargets{Calories: 500, ProteinG: 0, CarbsG: 80, FatG: 0}
	if got != want {
		t.Errorf("Remaining = %+v, want %+v", got, want)
	}
}
