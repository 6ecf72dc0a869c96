package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/meltforce/flexlog/internal/metrics"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSnapshots struct {
	mu      sync.Mutex
	states  map[string]json.RawMessage
	logs    []storage.SyncLog
	failErr error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{states: make(map[string]json.RawMessage)}
}

func (f *fakeSnapshots) GetSnapshot(_ context.Context, deviceID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return f.states[deviceID], nil
}

func (f *fakeSnapshots) UpsertSnapshot(_ context.Context, deviceID string, state json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.states[deviceID] = append(json.RawMessage(nil), state...)
	return nil
}

func (f *fakeSnapshots) InsertSyncLog(_ context.Context, log storage.SyncLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return int64(len(f.logs)), nil
}

func (f *fakeSnapshots) GetSyncLogs(_ context.Context, deviceID string, limit int) ([]storage.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []storage.SyncLog{}
	for _, l := range f.logs {
		if l.DeviceID == deviceID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeFoods struct{}

func (fakeFoods) Search(_ context.Context, q string) []models.FoodResult {
	if strings.TrimSpace(q) == "" {
		return []models.FoodResult{}
	}
	return []models.FoodResult{{Name: "Rice", Calories: 130, Source: models.FoodSourceFDC, Unit: "100g"}}
}

func (fakeFoods) Barcode(_ context.Context, code string) *models.FoodResult {
	if code != "123" {
		return nil
	}
	return &models.FoodResult{Name: "Bar", Calories: 200, Source: models.FoodSourceOFF, Unit: "serving"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(snaps SnapshotStore, opts Options) (*Server, *metrics.Manager) {
	m := metrics.NewTestManager()
	return New(snaps, fakeFoods{}, m, opts, testLogger()), m
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

// TestHealth verifies the liveness endpoint reports database availability.
func TestHealth(t *testing.T) {
	s, _ := newTestServer(nil, Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode(t, rec); got["status"] != "ok" || got["database"] != false {
		t.Errorf("body = %v", got)
	}
}

// TestSnapshotNotConfigured verifies both snapshot routes report
// not_configured without a database, after deviceId validation on GET.
func TestSnapshotNotConfigured(t *testing.T) {
	s, m := newTestServer(nil, Options{})

	rec := do(t, s, http.MethodGet, "/api/storage/snapshot", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET without deviceId status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=abc", "")
	got := decode(t, rec)
	if rec.Code != http.StatusOK || got["snapshot"] != nil || got["reason"] != "not_configured" {
		t.Errorf("GET = %d %v", rec.Code, got)
	}

	// POST reports not_configured before looking at the body.
	rec = do(t, s, http.MethodPost, "/api/storage/snapshot", "not json")
	got = decode(t, rec)
	if rec.Code != http.StatusOK || got["synced"] != false || got["reason"] != "not_configured" {
		t.Errorf("POST = %d %v", rec.Code, got)
	}

	if v := testutil.ToFloat64(m.CounterSnapshotSyncs.WithLabelValues("put", "not_configured")); v != 1 {
		t.Errorf("put not_configured counter = %v, want 1", v)
	}
}

// TestSnapshotRoundTrip verifies a pushed state is returned unchanged and
// that both operations are recorded as sync logs.
func TestSnapshotRoundTrip(t *testing.T) {
	snaps := newFakeSnapshots()
	s, _ := newTestServer(snaps, Options{})

	rec := do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=dev-1", "")
	if got := decode(t, rec); rec.Code != http.StatusOK || got["snapshot"] != nil {
		t.Fatalf("empty GET = %d %v", rec.Code, got)
	}

	rec = do(t, s, http.MethodPost, "/api/storage/snapshot", `{"deviceId":"dev-1","state":{"units":"kg","weightLogs":{"2024-01-01":80}}}`)
	if got := decode(t, rec); rec.Code != http.StatusOK || got["synced"] != true {
		t.Fatalf("POST = %d %v", rec.Code, got)
	}

	rec = do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=dev-1", "")
	got := decode(t, rec)
	snap, ok := got["snapshot"].(map[string]any)
	if !ok || snap["units"] != "kg" {
		t.Fatalf("snapshot = %v", got["snapshot"])
	}

	if len(snaps.logs) != 3 {
		t.Fatalf("sync logs = %d, want 3", len(snaps.logs))
	}
	if snaps.logs[0].Status != storage.SyncStatusEmpty || snaps.logs[1].Direction != storage.SyncPush || snaps.logs[2].Status != storage.SyncStatusOK {
		t.Errorf("sync logs = %+v", snaps.logs)
	}

	rec = do(t, s, http.MethodGet, "/api/storage/sync-logs?deviceId=dev-1&limit=2", "")
	if logs, _ := decode(t, rec)["logs"].([]any); len(logs) != 2 {
		t.Errorf("sync-logs returned %d entries, want 2", len(logs))
	}
}

// TestSnapshotPostValidation verifies deviceId and state shape checks.
func TestSnapshotPostValidation(t *testing.T) {
	s, _ := newTestServer(newFakeSnapshots(), Options{})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid json", `{`, "deviceId is required"},
		{"missing device", `{"state":{}}`, "deviceId is required"},
		{"numeric device", `{"deviceId":42,"state":{}}`, "deviceId is required"},
		{"missing state", `{"deviceId":"d"}`, "state must be an object"},
		{"null state", `{"deviceId":"d","state":null}`, "state must be an object"},
		{"array state", `{"deviceId":"d","state":[1,2]}`, "state must be an object"},
		{"string state", `{"deviceId":"d","state":"x"}`, "state must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/storage/snapshot", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := decode(t, rec); got["error"] != tt.wantErr {
				t.Errorf("error = %v, want %q", got["error"], tt.wantErr)
			}
		})
	}
}

// TestSnapshotStorageError verifies storage failures map to 500 responses.
func TestSnapshotStorageError(t *testing.T) {
	snaps := newFakeSnapshots()
	snaps.failErr = errors.New("connection reset")
	s, m := newTestServer(snaps, Options{})

	rec := do(t, s, http.MethodPost, "/api/storage/snapshot", `{"deviceId":"d","state":{}}`)
	got := decode(t, rec)
	if rec.Code != http.StatusInternalServerError || got["synced"] != false || got["error"] != "storage_error" {
		t.Errorf("POST = %d %v", rec.Code, got)
	}

	rec = do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=d", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET status = %d, want 500", rec.Code)
	}

	if v := testutil.ToFloat64(m.CounterSnapshotSyncs.WithLabelValues("put", "error")); v != 1 {
		t.Errorf("put error counter = %v, want 1", v)
	}
	if len(snaps.logs) != 2 || snaps.logs[0].ErrorMessage == nil {
		t.Errorf("sync logs = %+v", snaps.logs)
	}
}

// TestSnapshotAPIKey verifies the API key guards the snapshot routes only.
func TestSnapshotAPIKey(t *testing.T) {
	s, _ := newTestServer(newFakeSnapshots(), Options{APIKey: "secret"})

	if rec := do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=d", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=d", "", "X-API-Key", "wrong"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/storage/snapshot?deviceId=d", "", "X-API-Key", "secret"); rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/strength/profiles", ""); rec.Code != http.StatusOK {
		t.Errorf("profiles status = %d, want 200 without key", rec.Code)
	}
}

// TestFoodRoutes verifies the response envelopes of the food endpoints.
func TestFoodRoutes(t *testing.T) {
	s, _ := newTestServer(nil, Options{})

	rec := do(t, s, http.MethodGet, "/api/foods/search?q=rice", "")
	if results, _ := decode(t, rec)["results"].([]any); len(results) != 1 {
		t.Errorf("results = %v", results)
	}

	rec = do(t, s, http.MethodGet, "/api/foods/search", "")
	if results, ok := decode(t, rec)["results"].([]any); !ok || len(results) != 0 {
		t.Errorf("blank search results = %v, want []", results)
	}

	rec = do(t, s, http.MethodGet, "/api/foods/barcode?code=123", "")
	if result, _ := decode(t, rec)["result"].(map[string]any); result["name"] != "Bar" {
		t.Errorf("result = %v", result)
	}

	rec = do(t, s, http.MethodGet, "/api/foods/barcode?code=999", "")
	got := decode(t, rec)
	if v, ok := got["result"]; !ok || v != nil {
		t.Errorf("unknown barcode = %v, want null result", got)
	}
}

const strengthBody = `{
  "units": "lb",
  "bodyweight": 180,
  "workoutDays": [{
    "id": "d1", "name": "Push", "weekday": 1, "sortOrder": 0,
    "exercises": [{
      "id": "e1", "name": "Bench Press", "sets": 3, "reps": "5", "trackWeight": true,
      "logs": [
        {"date": "2024-01-01", "weight": 185},
        {"date": "2024-01-03", "weight": 190},
        {"date": "2024-01-05", "weight": 195},
        {"date": "2024-01-07", "weight": 200}
      ]
    }, {
      "id": "e2", "name": "Overhead Press", "sets": 3, "reps": "8-12", "trackWeight": true,
      "logs": [
        {"date": "2024-01-01", "weight": 95},
        {"date": "2024-01-03", "weight": 100},
        {"date": "2024-01-05", "weight": 100},
        {"date": "2024-01-07", "weight": 105}
      ]
    }]
  }]
}`

// TestStrengthEndpoint verifies the series computation over HTTP, including
// server-configured thresholds.
func TestStrengthEndpoint(t *testing.T) {
	s, m := newTestServer(nil, Options{})
	rec := do(t, s, http.MethodPost, "/api/v1/strength", strengthBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	if got["ok"] != true || got["distinctDays"] != float64(4) || got["totalEntries"] != float64(8) {
		t.Errorf("result = %v", got)
	}
	if v := testutil.ToFloat64(m.CounterStrengthRuns.WithLabelValues("true")); v != 1 {
		t.Errorf("strength counter = %v, want 1", v)
	}

	strict, _ := newTestServer(nil, Options{MinDistinctDays: 10})
	rec = do(t, strict, http.MethodPost, "/api/v1/strength", strengthBody)
	if got := decode(t, rec); got["ok"] != false || !strings.Contains(got["reason"].(string), "at least 10") {
		t.Errorf("strict result = %v", got)
	}
}

// TestStrengthEndpointValidation verifies malformed bodies and unknown units
// are rejected.
func TestStrengthEndpointValidation(t *testing.T) {
	s, _ := newTestServer(nil, Options{})
	if rec := do(t, s, http.MethodPost, "/api/v1/strength", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/strength", `{"units":"stone","bodyweight":12}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad units status = %d", rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/v1/strength", `{"workoutDays":[]}`)
	if got := decode(t, rec); rec.Code != http.StatusOK || got["ok"] != false || got["reason"] == "" {
		t.Errorf("no bodyweight = %d %v", rec.Code, got)
	}

	negative := `{"bodyweight":150,"minDistinctDays":-1,"minTotalEntries":-1,"workoutDays":[{"id":"d","name":"Push","exercises":[{"id":"b","name":"Bench Press","reps":"5","trackWeight":true,"logs":[{"date":"2024-01-01","weight":-50}]}]}]}`
	rec = do(t, s, http.MethodPost, "/api/v1/strength", negative)
	if got := decode(t, rec); rec.Code != http.StatusBadRequest || got["error"] != "thresholds must not be negative" {
		t.Errorf("negative thresholds = %d %v", rec.Code, got)
	}
}

// TestStrengthFromSnapshot verifies the series is computed from a stored
// snapshot using its units and bodyweight.
func TestStrengthFromSnapshot(t *testing.T) {
	snaps := newFakeSnapshots()
	var req struct {
		WorkoutDays json.RawMessage `json:"workoutDays"`
	}
	if err := json.Unmarshal([]byte(strengthBody), &req); err != nil {
		t.Fatal(err)
	}
	snaps.states["dev"] = json.RawMessage(`{"units":"lb","bodyweightOverride":180,"workoutDays":` + string(req.WorkoutDays) + `}`)
	s, _ := newTestServer(snaps, Options{})

	rec := do(t, s, http.MethodGet, "/api/v1/strength/snapshot?deviceId=dev", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result, _ := decode(t, rec)["result"].(map[string]any)
	if result["ok"] != true {
		t.Errorf("result = %v", result)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/strength/snapshot?deviceId=missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot status = %d, want 404", rec.Code)
	}

	unconfigured, _ := newTestServer(nil, Options{})
	rec = do(t, unconfigured, http.MethodGet, "/api/v1/strength/snapshot?deviceId=dev", "")
	if got := decode(t, rec); got["reason"] != "not_configured" {
		t.Errorf("unconfigured = %v", got)
	}
}

// TestClassifyAndProfiles verifies the catalog endpoints.
func TestClassifyAndProfiles(t *testing.T) {
	s, _ := newTestServer(nil, Options{})

	rec := do(t, s, http.MethodGet, "/api/v1/strength/classify?name=Romanian%20Deadlift", "")
	if got := decode(t, rec); got["id"] != "deadlift-conventional-sumo" {
		t.Errorf("classify = %v", got)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/strength/classify", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/strength/profiles", "")
	var profiles []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&profiles); err != nil {
		t.Fatal(err)
	}
	if len(profiles) == 0 || profiles[len(profiles)-1]["id"] != "general" {
		t.Errorf("profiles = %d entries, last = %v", len(profiles), profiles[len(profiles)-1])
	}
}

// TestTargetsEndpoint verifies TDEE/macro computation and enum validation.
func TestTargetsEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, Options{})

	body := `{"units":"kg","sex":"male","age":30,"heightCm":175,"weight":80,"activity":"moderate","goalMode":"simple","simpleGoal":"maintain"}`
	rec := do(t, s, http.MethodPost, "/api/v1/targets", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	targets, _ := got["targets"].(map[string]any)
	if got["tdee"] != float64(2711) || targets["calories"] != float64(2711) || targets["protein_g"] != float64(144) {
		t.Errorf("targets = %v", got)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/targets", `{"units":"kg","sex":"robot","activity":"moderate","goalMode":"simple","simpleGoal":"maintain"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid sex status = %d, want 400", rec.Code)
	}
}

// TestMetricsEndpoint verifies /metrics is served when a gatherer is set.
func TestMetricsEndpoint(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()
	s := New(nil, fakeFoods{}, m, Options{Gatherer: reg}, testLogger())

	do(t, s, http.MethodGet, "/healthz", "")
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "flexlog_test_requests_total") {
		t.Error("requests counter missing from /metrics output")
	}
}

// TestMCPMount verifies a configured MCP handler receives /mcp requests.
func TestMCPMount(t *testing.T) {
	var hit bool
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusAccepted)
	})
	s, _ := newTestServer(nil, Options{MCP: mcpHandler})
	rec := do(t, s, http.MethodPost, "/mcp", `{}`)
	if !hit || rec.Code != http.StatusAccepted {
		t.Errorf("hit = %v, status = %d", hit, rec.Code)
	}
}
