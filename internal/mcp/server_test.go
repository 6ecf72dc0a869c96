package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/flexlog/internal/models"
)

type fakeDataSource struct {
	states map[string]*models.StoreState
	err    error
}

func (f *fakeDataSource) LoadState(_ context.Context, deviceID string) (*models.StoreState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.states[deviceID], nil
}

type stubFoods struct{}

func (stubFoods) Search(_ context.Context, q string) []models.FoodResult {
	return []models.FoodResult{{Name: q, Calories: 100, Source: models.FoodSourceFDC}}
}

func (stubFoods) Barcode(_ context.Context, code string) *models.FoodResult {
	return nil
}

func newTestHandlers(ds DataSource, opts Options) *handlers {
	return &handlers{ds: ds, foods: stubFoods{}, opts: opts, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func sampleState() *models.StoreState {
	weekday := 1
	bw := 180.0
	st := models.DefaultStoreState(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC))
	st.BodyweightOverride = &bw
	st.Targets = &models.MacroTargets{Calories: 2000, ProteinG: 150, CarbsG: 200, FatG: 60}
	st.Onboarding = &models.OnboardingState{
		Units: models.UnitsKg, Sex: models.SexMale, Age: 30, HeightCm: 175, Weight: 80,
		Activity: models.ActivityModerate, GoalMode: models.GoalModeSimple, SimpleGoal: models.SimpleGoalMaintain,
	}
	st.Logs["2024-01-08"] = models.DailyLog{Date: "2024-01-08", MealGroups: []models.MealGroup{{
		ID: "g1", Name: "Breakfast",
		Items: []models.FoodItem{{Name: "Oats", Calories: 300, ProteinG: 10, CarbsG: 54, FatG: 5}},
	}}}
	st.WeightLogs["2024-01-08"] = 181
	bench := models.WorkoutExercise{ID: "e1", Name: "Bench Press", Sets: 3, Reps: "5", TrackWeight: true}
	row := models.WorkoutExercise{ID: "e2", Name: "Barbell Row", Sets: 3, Reps: "8", TrackWeight: true}
	for i, d := range []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-07"} {
		bench.SetLog(d, 185+float64(i)*5)
		row.SetLog(d, 135+float64(i)*5)
	}
	st.WorkoutDays = []models.WorkoutDay{
		{ID: "d2", Name: "Pull", SortOrder: 1, Exercises: []models.WorkoutExercise{row}},
		{ID: "d1", Name: "Push", Weekday: &weekday, SortOrder: 0, Exercises: []models.WorkoutExercise{bench}},
	}
	return &st
}

// TestDeviceIDFromContext verifies the context round trip and the empty default.
func TestDeviceIDFromContext(t *testing.T) {
	if id := DeviceIDFromContext(context.Background()); id != "" {
		t.Errorf("DeviceIDFromContext(empty) = %q, want empty", id)
	}
	ctx := WithDeviceID(context.Background(), "dev-9")
	if id := DeviceIDFromContext(ctx); id != "dev-9" {
		t.Errorf("DeviceIDFromContext = %q, want dev-9", id)
	}
}

// TestDeviceResolution verifies argument, context and default precedence.
func TestDeviceResolution(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, Options{DeviceID: "default"})
	ctx := WithDeviceID(context.Background(), "from-ctx")

	if got := h.deviceID(ctx, "explicit"); got != "explicit" {
		t.Errorf("explicit = %q", got)
	}
	if got := h.deviceID(ctx, ""); got != "from-ctx" {
		t.Errorf("context = %q", got)
	}
	if got := h.deviceID(context.Background(), ""); got != "default" {
		t.Errorf("default = %q", got)
	}
}

// TestGetStrengthIndex verifies the series is computed from stored state.
func TestGetStrengthIndex(t *testing.T) {
	ds := &fakeDataSource{states: map[string]*models.StoreState{"dev": sampleState()}}
	h := newTestHandlers(ds, Options{DeviceID: "dev"})

	res, err := h.getStrengthIndex(context.Background(), callReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		OK           bool `json:"ok"`
		DistinctDays int  `json:"distinctDays"`
		TotalEntries int  `json:"totalEntries"`
	}
	decodeResult(t, res, &out)
	if !out.OK || out.DistinctDays != 4 || out.TotalEntries != 8 {
		t.Errorf("result = %+v", out)
	}

	strict := newTestHandlers(ds, Options{DeviceID: "dev", MinDistinctDays: 6})
	res, _ = strict.getStrengthIndex(context.Background(), callReq(nil))
	decodeResult(t, res, &out)
	if out.OK {
		t.Error("expected OK=false with a 6-day threshold")
	}
}

// TestGetStrengthIndexMissingState verifies missing state and load errors
// surface as tool errors.
func TestGetStrengthIndexMissingState(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, Options{})
	res, _ := h.getStrengthIndex(context.Background(), callReq(map[string]any{"device_id": "ghost"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "ghost") {
		t.Errorf("missing state result = %+v", res)
	}

	failing := newTestHandlers(&fakeDataSource{err: errors.New("db down")}, Options{})
	res, _ = failing.getStrengthIndex(context.Background(), callReq(nil))
	if !res.IsError {
		t.Error("expected tool error on load failure")
	}
}

// TestClassifyExercise verifies classification and the required name.
func TestClassifyExercise(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, Options{})

	res, _ := h.classifyExercise(context.Background(), callReq(map[string]any{"name": "Hack Squat"}))
	var profile struct {
		ID string `json:"id"`
	}
	decodeResult(t, res, &profile)
	if profile.ID != "squat-back-front" {
		t.Errorf("id = %q", profile.ID)
	}

	res, _ = h.classifyExercise(context.Background(), callReq(nil))
	if !res.IsError {
		t.Error("expected error without name")
	}
}

// TestComputeTargets verifies explicit parameters, the stored onboarding
// fallback and enum validation.
func TestComputeTargets(t *testing.T) {
	ds := &fakeDataSource{states: map[string]*models.StoreState{"dev": sampleState()}}
	h := newTestHandlers(ds, Options{DeviceID: "dev"})

	var out struct {
		TDEE    float64 `json:"tdee"`
		Targets struct {
			Calories float64 `json:"calories"`
			ProteinG float64 `json:"protein_g"`
		} `json:"targets"`
	}

	res, _ := h.computeTargets(context.Background(), callReq(map[string]any{
		"units": "kg", "sex": "male", "age": 30.0, "height_cm": 175.0, "weight": 80.0, "activity": "moderate",
	}))
	decodeResult(t, res, &out)
	if out.TDEE != 2711 || out.Targets.Calories != 2711 || out.Targets.ProteinG != 144 {
		t.Errorf("explicit = %+v", out)
	}

	res, _ = h.computeTargets(context.Background(), callReq(nil))
	decodeResult(t, res, &out)
	if out.TDEE != 2711 {
		t.Errorf("stored onboarding tdee = %v, want 2711", out.TDEE)
	}

	res, _ = h.computeTargets(context.Background(), callReq(map[string]any{"sex": "male", "activity": "couch"}))
	if !res.IsError {
		t.Error("expected error for unknown activity")
	}
}

// TestGetDailyLog verifies totals, remaining and the weigh-in for a date.
func TestGetDailyLog(t *testing.T) {
	ds := &fakeDataSource{states: map[string]*models.StoreState{"dev": sampleState()}}
	h := newTestHandlers(ds, Options{DeviceID: "dev"})

	res, _ := h.getDailyLog(context.Background(), callReq(map[string]any{"date": "2024-01-08"}))
	var out dailyLogView
	decodeResult(t, res, &out)
	if out.Totals.Calories != 300 || out.Totals.Items != 1 {
		t.Errorf("totals = %+v", out.Totals)
	}
	if out.Remaining == nil || out.Remaining.Calories != 1700 || out.Remaining.CarbsG != 146 {
		t.Errorf("remaining = %+v", out.Remaining)
	}
	if out.WeighIn == nil || *out.WeighIn != 181 {
		t.Errorf("weighIn = %v", out.WeighIn)
	}

	res, _ = h.getDailyLog(context.Background(), callReq(map[string]any{"date": "2024-01-09"}))
	var empty dailyLogView
	decodeResult(t, res, &empty)
	if empty.Totals.Items != 0 || empty.Log.Date != "2024-01-09" || empty.WeighIn != nil {
		t.Errorf("empty day = %+v", empty)
	}

	res, _ = h.getDailyLog(context.Background(), callReq(map[string]any{"date": "08/01/2024"}))
	if !res.IsError {
		t.Error("expected error for malformed date")
	}
}

// TestFoodTools verifies the food tools wrap results in their envelopes.
func TestFoodTools(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, Options{})

	res, _ := h.searchFoods(context.Background(), callReq(map[string]any{"query": "rice"}))
	var search struct {
		Results []models.FoodResult `json:"results"`
	}
	decodeResult(t, res, &search)
	if len(search.Results) != 1 || search.Results[0].Name != "rice" {
		t.Errorf("results = %+v", search.Results)
	}

	res, _ = h.lookupBarcode(context.Background(), callReq(map[string]any{"code": "000"}))
	if text := resultText(t, res); !strings.Contains(text, `"result":null`) {
		t.Errorf("barcode = %s", text)
	}
}

// TestResources verifies the catalog and the ordered workout plan.
func TestResources(t *testing.T) {
	ds := &fakeDataSource{states: map[string]*models.StoreState{"dev": sampleState()}}
	h := newTestHandlers(ds, Options{DeviceID: "dev"})

	var req mcp.ReadResourceRequest
	req.Params.URI = "flexlog://workout_plan"
	contents, err := h.workoutPlan(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var plan struct {
		Units string `json:"units"`
		Days  []struct {
			Name      string `json:"name"`
			Exercises []struct {
				Profile string `json:"profile"`
				Latest  *struct {
					Date string `json:"date"`
				} `json:"latest"`
			} `json:"exercises"`
		} `json:"days"`
	}
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		t.Fatal(err)
	}
	if len(plan.Days) != 2 || plan.Days[0].Name != "Push" {
		t.Fatalf("days = %+v", plan.Days)
	}
	if ex := plan.Days[0].Exercises[0]; ex.Profile != "horizontal-press-bench" || ex.Latest == nil || ex.Latest.Date != "2024-01-07" {
		t.Errorf("push exercise = %+v", ex)
	}

	req.Params.URI = "flexlog://movement_catalog"
	contents, err = h.movementCatalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if text := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(text, `"general"`) {
		t.Error("catalog missing default profile")
	}
}

// TestNewRegistersFoodToolsOnlyWithSource verifies the server builds with
// and without a food source.
func TestNewRegistersFoodToolsOnlyWithSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if s := New(&fakeDataSource{}, nil, Options{}, "test", logger); s == nil {
		t.Fatal("nil server without foods")
	}
	if s := New(&fakeDataSource{}, stubFoods{}, Options{}, "test", logger); s == nil {
		t.Fatal("nil server with foods")
	}
}
