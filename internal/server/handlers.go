package server

import (
	"encoding/json"
	"net/http"

	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/nutrition"
	"github.com/meltforce/flexlog/internal/strength"
)

const maxRequestBytes = 5 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": s.snapshots != nil,
	})
}

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	results := []models.FoodResult{}
	if s.foods != nil {
		results = s.foods.Search(r.Context(), r.URL.Query().Get("q"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleFoodBarcode(w http.ResponseWriter, r *http.Request) {
	var result *models.FoodResult
	if s.foods != nil {
		result = s.foods.Barcode(r.Context(), r.URL.Query().Get("code"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// withThresholds fills unset strength thresholds from the server options.
func (s *Server) withThresholds(p strength.Params) strength.Params {
	if p.MinDistinctDays == 0 {
		p.MinDistinctDays = s.opts.MinDistinctDays
	}
	if p.MinTotalEntries == 0 {
		p.MinTotalEntries = s.opts.MinTotalEntries
	}
	return p
}

func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	var p strength.Params
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if p.Units == "" {
		p.Units = models.UnitsLb
	}
	if p.BodyweightUnits == "" {
		p.BodyweightUnits = p.Units
	}
	if !p.Units.Valid() || !p.BodyweightUnits.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "units must be lb or kg"})
		return
	}
	if p.MinDistinctDays < 0 || p.MinTotalEntries < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "thresholds must not be negative"})
		return
	}

	res := strength.ComputeSeries(s.withThresholds(p))
	s.metrics.StrengthRun(res.OK)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, strength.Profiles())
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	writeJSON(w, http.StatusOK, strength.Classify(name))
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	var p nutrition.Params
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	res, err := nutrition.ComputeTargets(p)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
