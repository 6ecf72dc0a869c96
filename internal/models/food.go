package models

// FoodSource identifies where a food entry came from.
type FoodSource string

const (
	FoodSourceFDC    FoodSource = "FDC"
	FoodSourceOFF    FoodSource = "OFF"
	FoodSourceCustom FoodSource = "CUSTOM"
)

// MacroTargets is a daily calorie and macro goal.
type MacroTargets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// FoodResult is a normalized lookup result from a nutrition API.
type FoodResult struct {
	Name     string     `json:"name"`
	Brand    *string    `json:"brand"`
	Calories float64    `json:"calories"`
	ProteinG float64    `json:"protein_g"`
	CarbsG   float64    `json:"carbs_g"`
	FatG     float64    `json:"fat_g"`
	Source   FoodSource `json:"source"`
	SourceID *string    `json:"sourceId"`
	Barcode  *string    `json:"barcode,omitempty"`
	Unit     string     `json:"unit,omitempty"`
	Per      *string    `json:"per,omitempty"`
}

// FoodItem is a logged food entry inside a meal group.
type FoodItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Source    FoodSource `json:"source"`
	SourceID  *string    `json:"sourceId"`
	Barcode   *string    `json:"barcode"`
	Qty       float64    `json:"qty"`
	Unit      string     `json:"unit"`
	Calories  float64    `json:"calories"`
	ProteinG  float64    `json:"protein_g"`
	CarbsG    float64    `json:"carbs_g"`
	FatG      float64    `json:"fat_g"`
	CreatedAt int64      `json:"createdAt"` // unix millis
}

// MealGroup groups food items ("Breakfast", "Post-workout", ...).
type MealGroup struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SortOrder int        `json:"sortOrder"`
	Collapsed bool       `json:"collapsed"`
	Items     []FoodItem `json:"items"`
}

// DailyLog is the food log for one date.
type DailyLog struct {
	Date       string      `json:"date"` // yyyy-MM-dd
	MealGroups []MealGroup `json:"mealGroups"`
	Notes      string      `json:"notes,omitempty"`
}

// Clone returns a deep copy of l.
func (l DailyLog) Clone() DailyLog {
	c := l
	if l.MealGroups == nil {
		return c
	}
	c.MealGroups = make([]MealGroup, len(l.MealGroups))
	for i, g := range l.MealGroups {
		if g.Items != nil {
			items := make([]FoodItem, len(g.Items))
			for j, it := range g.Items {
				it.SourceID = clonePtr(it.SourceID)
				it.Barcode = clonePtr(it.Barcode)
				items[j] = it
			}
			g.Items = items
		}
		c.MealGroups[i] = g
	}
	return c
}
