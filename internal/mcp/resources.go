package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/strength"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) movementCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, strength.Profiles())
}

func (h *handlers) workoutPlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.ds == nil {
		return nil, fmt.Errorf("no state storage configured")
	}
	deviceID := h.deviceID(ctx, "")
	state, err := h.ds.LoadState(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no stored state for device %q", deviceID)
	}

	days := append([]models.WorkoutDay(nil), state.WorkoutDays...)
	models.SortWorkoutDays(days)

	type exerciseView struct {
		Name        string                     `json:"name"`
		Sets        int                        `json:"sets"`
		Reps        string                     `json:"reps"`
		TrackWeight bool                       `json:"trackWeight"`
		Profile     string                     `json:"profile"`
		Latest      *models.WorkoutExerciseLog `json:"latest,omitempty"`
	}
	type dayView struct {
		Name      string         `json:"name"`
		Weekday   *int           `json:"weekday"`
		Exercises []exerciseView `json:"exercises"`
	}

	plan := make([]dayView, 0, len(days))
	for _, d := range days {
		dv := dayView{Name: d.Name, Weekday: d.Weekday, Exercises: make([]exerciseView, 0, len(d.Exercises))}
		for i := range d.Exercises {
			ex := &d.Exercises[i]
			dv.Exercises = append(dv.Exercises, exerciseView{
				Name:        ex.Name,
				Sets:        ex.Sets,
				Reps:        ex.Reps,
				TrackWeight: ex.TrackWeight,
				Profile:     strength.Classify(ex.Name).ID,
				Latest:      ex.LatestLog(),
			})
		}
		plan = append(plan, dv)
	}

	return jsonContents(req.Params.URI, map[string]any{
		"units": state.EffectiveUnits(),
		"days":  plan,
	})
}
