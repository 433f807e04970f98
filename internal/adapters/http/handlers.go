package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jobrunner/geolint/internal/application"
	"github.com/jobrunner/geolint/internal/domain"
)

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":        boolToStatus(details.Healthy),
		"ready":         details.Ready,
		"runs_retained": details.RunsRetained,
		"run_active":    details.RunActive,
		"components":    details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleListRuns returns summaries of the retained validation runs,
// newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.history.ListRuns(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	response := make([]map[string]interface{}, len(runs))
	for i, run := range runs {
		response[i] = s.formatRunSummary(run)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  response,
		"count": len(runs),
	})
}

// handleGetRun returns one full validation run including every defect detail.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["runId"]

	run, err := s.history.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handleGetRunLayer returns the findings for one layer of a run.
func (s *Server) handleGetRunLayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["runId"]
	layer := vars["layer"]

	run, err := s.history.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	item, ok := run.ItemFor(layer)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Layer not found in run")
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

// handleValidate triggers a validation run.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if s.runService == nil {
		s.writeError(w, http.StatusNotFound, "Run service not available")
		return
	}

	result, err := s.runService.TriggerRun(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", "30")
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in 30 seconds.")
			return
		}
		s.logger.Error("validation run failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Validation run failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleOpenAPI returns the OpenAPI specification.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// formatRunSummary formats a run for the list endpoint, without the
// per-feature details.
func (s *Server) formatRunSummary(run *domain.ValidationRun) map[string]interface{} {
	layers := make([]map[string]interface{}, len(run.Items))
	for i, item := range run.Items {
		layers[i] = map[string]interface{}{
			"table":              item.Table,
			"geometry_type":      item.GeometryType,
			"total_features":     item.TotalFeatures,
			"processed_features": item.ProcessedFeatures,
			"defects":            item.DefectCount(),
		}
		if item.RunError != "" {
			layers[i]["run_error"] = item.RunError
		}
	}

	summary := map[string]interface{}{
		"id":          run.ID,
		"store_id":    run.StoreID,
		"status":      run.Status,
		"started_at":  run.StartedAt,
		"finished_at": run.FinishedAt,
		"layers":      layers,
		"defects":     run.DefectCount(),
	}
	if run.Error != "" {
		summary["error"] = run.Error
	}
	return summary
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
