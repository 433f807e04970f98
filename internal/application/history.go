package application

import (
	"context"
	"sync"

	"github.com/jobrunner/geolint/internal/domain"
)

// RunHistory is an in-memory, bounded registry of completed validation runs
// serving the report API. Oldest runs fall off when the limit is reached.
type RunHistory struct {
	mu    sync.RWMutex
	runs  []*domain.ValidationRun // Newest first
	limit int
}

// NewRunHistory creates a run history retaining at most limit runs.
func NewRunHistory(limit int) *RunHistory {
	if limit < 1 {
		limit = 1
	}
	return &RunHistory{limit: limit}
}

// Add records a finished run, evicting the oldest when over the limit.
func (h *RunHistory) Add(run *domain.ValidationRun) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append([]*domain.ValidationRun{run}, h.runs...)
	if len(h.runs) > h.limit {
		h.runs = h.runs[:h.limit]
	}
}

// ListRuns implements input.RunRegistry.
func (h *RunHistory) ListRuns(_ context.Context) ([]*domain.ValidationRun, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	runs := make([]*domain.ValidationRun, len(h.runs))
	copy(runs, h.runs)
	return runs, nil
}

// GetRun implements input.RunRegistry.
func (h *RunHistory) GetRun(_ context.Context, id string) (*domain.ValidationRun, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, run := range h.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, domain.ErrRunNotFound
}

// Latest returns the most recent run, or nil when none exist.
func (h *RunHistory) Latest() *domain.ValidationRun {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.runs) == 0 {
		return nil
	}
	return h.runs[0]
}

// Count returns the number of retained runs.
func (h *RunHistory) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}
