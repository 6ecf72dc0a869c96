// Package nutrition derives daily calorie and macro targets from onboarding
// answers and totals logged food against them.
package nutrition

import (
	"fmt"
	"math"

	"github.com/meltforce/flexlog/internal/models"
)

const kgPerLb = 0.45359237

// Energy density in kcal per gram.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Approximate energy content of one unit of bodyweight.
const (
	kcalPerLb = 3500
	kcalPerKg = 7700
)

var activityMultiplier = map[models.Activity]float64{
	models.ActivitySedentary: 1.2,
	models.ActivityLight:     1.375,
	models.ActivityModerate:  1.55,
	models.ActivityVery:      1.725,
	models.ActivityAthlete:   1.9,
}

var simpleGoalDelta = map[models.SimpleGoal]float64{
	models.SimpleGoalLose:     -0.15,
	models.SimpleGoalMaintain: 0,
	models.SimpleGoalGain:     0.10,
}

// Params are the onboarding answers targets are computed from.
type Params = models.OnboardingState

// Result holds the rounded TDEE and the derived daily targets.
type Result struct {
	TDEE    float64             `json:"tdee"`
	Targets models.MacroTargets `json:"targets"`
}

// MifflinStJeorBMR returns basal metabolic rate in kcal/day.
func MifflinStJeorBMR(sex models.Sex, age, heightCm, weightKg float64) float64 {
	s := -161.0
	if sex == models.SexMale {
		s = 5
	}
	return 10*weightKg + 6.25*heightCm - 5*age + s
}

func toKg(units models.Units, weight float64) float64 {
	if units == models.UnitsKg {
		return weight
	}
	return weight * kgPerLb
}

func validate(p Params) error {
	if !p.Units.Valid() {
		return fmt.Errorf("unknown units %q", p.Units)
	}
	if p.Sex != models.SexMale && p.Sex != models.SexFemale {
		return fmt.Errorf("unknown sex %q", p.Sex)
	}
	if _, ok := activityMultiplier[p.Activity]; !ok {
		return fmt.Errorf("unknown activity level %q", p.Activity)
	}
	switch p.GoalMode {
	case models.GoalModeRate, models.GoalModePercent:
	case models.GoalModeSimple:
		if _, ok := simpleGoalDelta[p.SimpleGoal]; !ok {
			return fmt.Errorf("unknown simple goal %q", p.SimpleGoal)
		}
	default:
		return fmt.Errorf("unknown goal mode %q", p.GoalMode)
	}
	return nil
}

// ComputeTargets returns TDEE and macro targets. Only enumerated fields are
// validated; numeric inputs are used as given.
//
// Rate mode has no explicit gain direction: a positive rate is a weekly
// deficit and the target is TDEE minus rate*kcal-per-unit/7.
func ComputeTargets(p Params) (Result, error) {
	if err := validate(p); err != nil {
		return Result{}, err
	}

	weightKg := toKg(p.Units, p.Weight)
	bmr := MifflinStJeorBMR(p.Sex, p.Age, p.HeightCm, weightKg)
	tdee := bmr * activityMultiplier[p.Activity]

	calories := tdee
	switch p.GoalMode {
	case models.GoalModePercent:
		calories = tdee * (1 + p.Percent/100)
	case models.GoalModeSimple:
		calories = tdee * (1 + simpleGoalDelta[p.SimpleGoal])
	case models.GoalModeRate:
		perUnit := float64(kcalPerKg)
		if p.Units == models.UnitsLb {
			perUnit = kcalPerLb
		}
		calories = tdee - p.Rate*perUnit/7
	}

	proteinPerKg := 1.8
	if calories < tdee {
		proteinPerKg += 0.2
	}
	protein := weightKg * proteinPerKg
	fat := math.Max(0.8*weightKg, 45)
	carbs := math.Max(0, (calories-protein*kcalPerGramProtein-fat*kcalPerGramFat)/kcalPerGramCarbs)

	return Result{
		TDEE: round(tdee),
		Targets: models.MacroTargets{
			Calories: round(calories),
			ProteinG: round(protein),
			CarbsG:   round(carbs),
			FatG:     round(fat),
		},
	}, nil
}

// round rounds half up, so -2.5 becomes -2.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
