// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
)

// ProgressSink receives advisory progress updates during a run. Progress is
// not part of the correctness contract; implementations must tolerate being
// called from the validation goroutine.
type ProgressSink interface {
	Progress(percent int, message string)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(percent int, message string)

// Progress implements ProgressSink.
func (f ProgressFunc) Progress(percent int, message string) { f(percent, message) }

// GeometryValidator defines the primary port for geometry validation.
type GeometryValidator interface {
	// ValidateStore runs the configured checks against one vector store and
	// returns one item per matched layer. The returned run may be partial:
	// callers must not assume completeness purely from call success.
	ValidateStore(ctx context.Context, req domain.ValidationRequest, progress ProgressSink) (*domain.ValidationRun, error)
}

// RunRegistry defines the primary port for browsing completed runs.
type RunRegistry interface {
	// ListRuns returns all retained validation runs, newest first.
	ListRuns(ctx context.Context) ([]*domain.ValidationRun, error)

	// GetRun returns a specific run by ID.
	GetRun(ctx context.Context, id string) (*domain.ValidationRun, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy      bool              // Overall health status
	Ready        bool              // Ready to accept requests
	RunsRetained int               // Number of retained runs
	RunActive    bool              // A validation run is in flight
	Components   map[string]string // Component statuses
}
