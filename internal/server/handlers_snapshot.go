package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/storage"
	"github.com/meltforce/flexlog/internal/strength"
)

const reasonNotConfigured = "not_configured"

type snapshotRequest struct {
	DeviceID any             `json:"deviceId"`
	State    json.RawMessage `json:"state"`
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId is required"})
		return
	}
	if s.snapshots == nil {
		s.metrics.SnapshotSync("get", reasonNotConfigured)
		writeJSON(w, http.StatusOK, map[string]any{"snapshot": nil, "reason": reasonNotConfigured})
		return
	}

	state, err := s.snapshots.GetSnapshot(r.Context(), deviceID)
	if err != nil {
		s.log.Error("get snapshot", "device_id", deviceID, "error", err)
		s.metrics.SnapshotSync("get", storage.SyncStatusError)
		s.logSync(deviceID, storage.SyncPull, 0, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_error"})
		return
	}

	status := storage.SyncStatusOK
	if state == nil {
		status = storage.SyncStatusEmpty
	}
	s.metrics.SnapshotSync("get", status)
	s.logSync(deviceID, storage.SyncPull, len(state), nil)

	// A nil RawMessage encodes as null.
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": state})
}

func (s *Server) handlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.metrics.SnapshotSync("put", reasonNotConfigured)
		writeJSON(w, http.StatusOK, map[string]any{"synced": false, "reason": reasonNotConfigured})
		return
	}

	var req snapshotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId is required"})
		return
	}
	deviceID, ok := req.DeviceID.(string)
	if !ok || deviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId is required"})
		return
	}
	state := bytes.TrimSpace(req.State)
	if len(state) == 0 || state[0] != '{' {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state must be an object"})
		return
	}

	if err := s.snapshots.UpsertSnapshot(r.Context(), deviceID, state); err != nil {
		s.log.Error("persist snapshot", "device_id", deviceID, "error", err)
		s.metrics.SnapshotSync("put", storage.SyncStatusError)
		s.logSync(deviceID, storage.SyncPush, len(state), err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"synced": false, "error": "storage_error"})
		return
	}

	s.metrics.SnapshotSync("put", storage.SyncStatusOK)
	s.logSync(deviceID, storage.SyncPush, len(state), nil)
	writeJSON(w, http.StatusOK, map[string]any{"synced": true})
}

// logSync records a sync operation. Failures are logged and otherwise ignored.
func (s *Server) logSync(deviceID, direction string, size int, syncErr error) {
	entry := storage.SyncLog{
		DeviceID:  deviceID,
		Direction: direction,
		Status:    storage.SyncStatusOK,
		Bytes:     size,
	}
	if syncErr != nil {
		msg := syncErr.Error()
		entry.Status = storage.SyncStatusError
		entry.ErrorMessage = &msg
	} else if size == 0 {
		entry.Status = storage.SyncStatusEmpty
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.snapshots.InsertSyncLog(ctx, entry); err != nil {
		s.log.Warn("recording sync log", "device_id", deviceID, "error", err)
	}
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId is required"})
		return
	}
	if s.snapshots == nil {
		writeJSON(w, http.StatusOK, map[string]any{"logs": []storage.SyncLog{}, "reason": reasonNotConfigured})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := s.snapshots.GetSyncLogs(r.Context(), deviceID, limit)
	if err != nil {
		s.log.Error("query sync logs", "device_id", deviceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleStrengthFromSnapshot computes the strength series from a device's
// stored snapshot. Nothing is persisted.
func (s *Server) handleStrengthFromSnapshot(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId is required"})
		return
	}
	if s.snapshots == nil {
		writeJSON(w, http.StatusOK, map[string]any{"result": nil, "reason": reasonNotConfigured})
		return
	}

	raw, err := s.snapshots.GetSnapshot(r.Context(), deviceID)
	if err != nil {
		s.log.Error("get snapshot", "device_id", deviceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_error"})
		return
	}
	if raw == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot not found"})
		return
	}
	state, err := models.DecodeStoreState(raw, time.Now())
	if err != nil {
		s.log.Warn("decode snapshot", "device_id", deviceID, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "stored snapshot is unreadable"})
		return
	}

	res := strength.ComputeSeries(s.withThresholds(strength.ParamsFromState(&state)))
	s.metrics.StrengthRun(res.OK)
	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}
