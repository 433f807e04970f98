package application

import (
	"context"

	"github.com/jobrunner/geolint/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	history *RunHistory
	runs    *RunService
}

// NewHealthService creates a new health service.
func NewHealthService(history *RunHistory, runs *RunService) *HealthService {
	return &HealthService{
		history: history,
		runs:    runs,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the service is ready to accept requests. The
// service accepts report and trigger requests as soon as it is up; an
// in-flight run does not make it unready.
func (s *HealthService) IsReady(_ context.Context) bool {
	return true
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	active := false
	if s.runs != nil {
		active = s.runs.Active()
	}

	components := map[string]string{
		"validator": "ok",
	}
	if active {
		components["validator"] = "running"
	}

	return input.HealthDetails{
		Healthy:      s.IsHealthy(ctx),
		Ready:        s.IsReady(ctx),
		RunsRetained: s.history.Count(),
		RunActive:    active,
		Components:   components,
	}
}
