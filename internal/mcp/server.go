package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const deviceIDKey contextKey = iota

// DeviceIDFromContext extracts the device ID injected by the transport layer.
func DeviceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey).(string); ok {
		return id
	}
	return ""
}

// WithDeviceID returns a context with the given device ID.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// Options configures tool defaults.
type Options struct {
	// DeviceID is used when neither the tool call nor the transport names one.
	DeviceID string
	// MinDistinctDays and MinTotalEntries override the strength thresholds.
	MinDistinctDays int
	MinTotalEntries int
}

// New creates an MCP server with all tools and resources registered. ds may
// be nil, in which case state-backed tools report an error. foods may be nil,
// in which case the food tools are not offered.
func New(ds DataSource, foods FoodSource, opts Options, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FlexLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FlexLog calorie and workout tracker. Compute the bodyweight-relative strength index from logged lifts, derive calorie and macro targets, look up foods, and read daily food logs."),
	)

	h := &handlers{ds: ds, foods: foods, opts: opts, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetStrengthIndex, Handler: h.getStrengthIndex},
		server.ServerTool{Tool: toolClassifyExercise, Handler: h.classifyExercise},
		server.ServerTool{Tool: toolComputeTargets, Handler: h.computeTargets},
		server.ServerTool{Tool: toolGetDailyLog, Handler: h.getDailyLog},
	)
	if foods != nil {
		s.AddTools(
			server.ServerTool{Tool: toolSearchFoods, Handler: h.searchFoods},
			server.ServerTool{Tool: toolLookupBarcode, Handler: h.lookupBarcode},
		)
	}

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resMovementCatalog, Handler: h.movementCatalog},
		server.ServerResource{Resource: resWorkoutPlan, Handler: h.workoutPlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	foods FoodSource
	opts  Options
	log   *slog.Logger
}

// deviceID resolves the device for a call: explicit argument, then
// transport context, then the configured default.
func (h *handlers) deviceID(ctx context.Context, arg string) string {
	if arg != "" {
		return arg
	}
	if id := DeviceIDFromContext(ctx); id != "" {
		return id
	}
	return h.opts.DeviceID
}

// --- Resource definitions ---

var resMovementCatalog = mcp.NewResource(
	"flexlog://movement_catalog",
	"Movement Catalog",
	mcp.WithResourceDescription("Movement profiles used to normalize the strength index, with their expected e1RM/bodyweight ratios"),
	mcp.WithMIMEType("application/json"),
)

var resWorkoutPlan = mcp.NewResource(
	"flexlog://workout_plan",
	"Workout Plan",
	mcp.WithResourceDescription("The device's workout days and exercises, ordered as shown in the app"),
	mcp.WithMIMEType("application/json"),
)
