package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/flexlog/internal/metrics"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotStore persists device snapshots. *storage.DB satisfies it.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, deviceID string) (json.RawMessage, error)
	UpsertSnapshot(ctx context.Context, deviceID string, state json.RawMessage) error
	InsertSyncLog(ctx context.Context, log storage.SyncLog) (int64, error)
	GetSyncLogs(ctx context.Context, deviceID string, limit int) ([]storage.SyncLog, error)
}

var _ SnapshotStore = (*storage.DB)(nil)

// FoodLookup is the food search backend. *food.Service satisfies it.
type FoodLookup interface {
	Search(ctx context.Context, q string) []models.FoodResult
	Barcode(ctx context.Context, code string) *models.FoodResult
}

// Options carries the optional parts of a Server.
type Options struct {
	// APIKey protects the snapshot endpoints when set.
	APIKey string
	// MinDistinctDays and MinTotalEntries override the strength thresholds.
	MinDistinctDays int
	MinTotalEntries int
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	snapshots SnapshotStore
	foods     FoodLookup
	metrics   *metrics.Manager
	opts      Options
	log       *slog.Logger
	router    chi.Router
}

// New creates a new Server with all routes configured. snapshots may be nil
// when no database is configured.
func New(snapshots SnapshotStore, foods FoodLookup, m *metrics.Manager, opts Options, log *slog.Logger) *Server {
	s := &Server{
		snapshots: snapshots,
		foods:     foods,
		metrics:   m,
		opts:      opts,
		log:       log,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Get("/api/foods/search", s.handleFoodSearch)
	s.router.Get("/api/foods/barcode", s.handleFoodBarcode)

	// Snapshot endpoints (API key required when configured)
	s.router.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(APIKeyAuth(s.opts.APIKey))
		}
		r.Get("/api/storage/snapshot", s.handleGetSnapshot)
		r.Post("/api/storage/snapshot", s.handlePostSnapshot)
		r.Get("/api/storage/sync-logs", s.handleSyncLogs)
		r.Get("/api/v1/strength/snapshot", s.handleStrengthFromSnapshot)
	})

	s.router.Post("/api/v1/strength", s.handleStrength)
	s.router.Get("/api/v1/strength/profiles", s.handleProfiles)
	s.router.Get("/api/v1/strength/classify", s.handleClassify)
	s.router.Post("/api/v1/targets", s.handleTargets)

	if s.opts.MCP != nil {
		s.router.Mount("/mcp", s.opts.MCP)
	}
}
