package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/nutrition"
	"github.com/meltforce/flexlog/internal/strength"
)

// --- Tool definitions ---

var deviceIDParam = mcp.WithString("device_id", mcp.Description("Device whose stored state to use. Defaults to the configured device."))

var toolGetStrengthIndex = mcp.NewTool("get_strength_index",
	mcp.WithDescription("Compute the bodyweight-relative strength index series from the device's logged working weights. Returns per-day points, baseline/current averages and percent change when there is enough data, otherwise a reason."),
	deviceIDParam,
)

var toolClassifyExercise = mcp.NewTool("classify_exercise",
	mcp.WithDescription("Classify an exercise name into a movement profile (e.g. 'Romanian Deadlift' -> deadlift pattern) with its expected e1RM/bodyweight ratio."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name as entered by the user")),
)

var toolComputeTargets = mcp.NewTool("compute_targets",
	mcp.WithDescription("Compute TDEE and daily calorie/protein/carb/fat targets (Mifflin-St Jeor). Without 'sex', the device's stored onboarding answers are used."),
	mcp.WithString("units", mcp.Description("Weight units"), mcp.Enum("lb", "kg")),
	mcp.WithString("sex", mcp.Enum("male", "female")),
	mcp.WithNumber("age", mcp.Description("Age in years")),
	mcp.WithNumber("height_cm", mcp.Description("Height in centimeters")),
	mcp.WithNumber("weight", mcp.Description("Bodyweight in 'units'")),
	mcp.WithString("activity", mcp.Enum("sedentary", "light", "moderate", "very", "athlete")),
	mcp.WithString("goal_mode", mcp.Description("Defaults to 'simple'"), mcp.Enum("simple", "percent", "rate")),
	mcp.WithString("simple_goal", mcp.Description("Used with goal_mode=simple. Defaults to 'maintain'"), mcp.Enum("lose", "maintain", "gain")),
	mcp.WithNumber("percent", mcp.Description("Signed calorie adjustment in percent for goal_mode=percent (e.g. -15)")),
	mcp.WithNumber("rate", mcp.Description("Weekly weight change in 'units' for goal_mode=rate; positive values are a deficit")),
	deviceIDParam,
)

var toolSearchFoods = mcp.NewTool("search_foods",
	mcp.WithDescription("Search USDA FoodData Central. Returns up to 15 foods with calories and macros per 100g."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Food name, e.g. 'chicken breast'")),
)

var toolLookupBarcode = mcp.NewTool("lookup_barcode",
	mcp.WithDescription("Look up a packaged product by barcode in Open Food Facts. Returns null when the product is unknown."),
	mcp.WithString("code", mcp.Required(), mcp.Description("EAN/UPC barcode")),
)

var toolGetDailyLog = mcp.NewTool("get_daily_log",
	mcp.WithDescription("Food log for one day with totals, the macro targets and what remains against them."),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
	deviceIDParam,
)

// --- Tool handlers ---

// loadState returns the device's state or a tool error result.
func (h *handlers) loadState(ctx context.Context, req mcp.CallToolRequest) (*models.StoreState, *mcp.CallToolResult) {
	if h.ds == nil {
		return nil, mcp.NewToolResultError("no state storage configured")
	}
	deviceID := h.deviceID(ctx, req.GetString("device_id", ""))
	state, err := h.ds.LoadState(ctx, deviceID)
	if err != nil {
		h.log.Error("mcp load state", "device_id", deviceID, "error", err)
		return nil, mcp.NewToolResultError("loading state failed: " + err.Error())
	}
	if state == nil {
		return nil, mcp.NewToolResultError("no stored state for device " + deviceID)
	}
	return state, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStrengthIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, errResult := h.loadState(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	p := strength.ParamsFromState(state)
	p.MinDistinctDays = h.opts.MinDistinctDays
	p.MinTotalEntries = h.opts.MinTotalEntries
	return jsonResult(strength.ComputeSeries(p))
}

func (h *handlers) classifyExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	return jsonResult(strength.Classify(name))
}

func (h *handlers) computeTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nutrition.Params
	if req.GetString("sex", "") == "" {
		state, errResult := h.loadState(ctx, req)
		if errResult != nil {
			return errResult, nil
		}
		if state.Onboarding == nil {
			return mcp.NewToolResultError("no onboarding answers stored; pass sex, age, height_cm, weight and activity"), nil
		}
		p = *state.Onboarding
	} else {
		p = nutrition.Params{
			Units:      models.Units(req.GetString("units", string(models.UnitsKg))),
			Sex:        models.Sex(req.GetString("sex", "")),
			Age:        req.GetFloat("age", 0),
			HeightCm:   req.GetFloat("height_cm", 0),
			Weight:     req.GetFloat("weight", 0),
			Activity:   models.Activity(req.GetString("activity", string(models.ActivityModerate))),
			GoalMode:   models.GoalMode(req.GetString("goal_mode", string(models.GoalModeSimple))),
			SimpleGoal: models.SimpleGoal(req.GetString("simple_goal", string(models.SimpleGoalMaintain))),
			Percent:    req.GetFloat("percent", 0),
			Rate:       req.GetFloat("rate", 0),
		}
	}

	res, err := nutrition.ComputeTargets(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) searchFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	return jsonResult(map[string]any{"results": h.foods.Search(ctx, query)})
}

func (h *handlers) lookupBarcode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code parameter is required"), nil
	}
	return jsonResult(map[string]any{"result": h.foods.Barcode(ctx, code)})
}

// dailyLogView is the get_daily_log response.
type dailyLogView struct {
	Date      string               `json:"date"`
	Log       models.DailyLog      `json:"log"`
	Totals    nutrition.Totals     `json:"totals"`
	Targets   *models.MacroTargets `json:"targets"`
	Remaining *models.MacroTargets `json:"remaining,omitempty"`
	WeighIn   *float64             `json:"weighIn,omitempty"`
}

func (h *handlers) getDailyLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return mcp.NewToolResultError("invalid date format, want YYYY-MM-DD"), nil
	}

	state, errResult := h.loadState(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	log := state.DailyLog(date)
	view := dailyLogView{
		Date:    date,
		Log:     log,
		Totals:  nutrition.DayTotals(log),
		Targets: state.Targets,
	}
	if state.Targets != nil {
		remaining := nutrition.Remaining(*state.Targets, view.Totals)
		view.Remaining = &remaining
	}
	if w, ok := state.WeightLogs[date]; ok {
		view.WeighIn = &w
	}
	return jsonResult(view)
}
