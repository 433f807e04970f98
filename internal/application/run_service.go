package application

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/input"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// ErrRateLimited is returned when the run-trigger API rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// RunResult summarizes a triggered validation run for API callers.
type RunResult struct {
	RunID           string    `json:"run_id"`
	Status          string    `json:"status"`
	Layers          int       `json:"layers"`
	Defects         int       `json:"defects"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at,omitempty"`
}

// RunService executes validation runs on a single background worker. Runs
// never overlap; manual API triggers share a 30 second cooldown.
type RunService struct {
	validator input.GeometryValidator
	history   *RunHistory
	storage   output.ObjectStorage // Optional; nil when the store path is local
	logger    *slog.Logger

	interval  time.Duration // Zero disables the periodic scheduler
	localPath string        // Download target for fetched stores
	storePath string        // Local store path when no storage is configured
	configs   []domain.CheckConfig
	criteria  domain.Criteria

	stopCh chan struct{}
	wg     sync.WaitGroup
	active atomic.Bool

	// Rate limiting for API triggers
	lastAPIRun time.Time
	apiMutex   sync.Mutex

	// Prevents concurrent run operations
	runOpMutex sync.Mutex
}

// NewRunService creates a new background run service.
func NewRunService(
	validator input.GeometryValidator,
	history *RunHistory,
	storage output.ObjectStorage,
	logger *slog.Logger,
	interval time.Duration,
	localPath string,
	storePath string,
	configs []domain.CheckConfig,
	criteria domain.Criteria,
) *RunService {
	return &RunService{
		validator: validator,
		history:   history,
		storage:   storage,
		logger:    logger,
		interval:  interval,
		localPath: localPath,
		storePath: storePath,
		configs:   configs,
		criteria:  criteria,
		stopCh:    make(chan struct{}),
		// Initialize to past time to allow an immediate first API call
		lastAPIRun: time.Now().Add(-31 * time.Second),
	}
}

// Start begins the periodic run scheduler when an interval is configured.
func (s *RunService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("periodic validation disabled")
		return
	}
	s.logger.Info("starting run service", "interval", s.interval)

	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *RunService) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("run service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("run service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled validation triggered")
			if _, err := s.doRun(ctx); err != nil {
				s.logger.Error("scheduled validation failed", "error", err)
			}
		}
	}
}

// Stop gracefully stops the run service.
func (s *RunService) Stop() {
	s.logger.Info("stopping run service")
	close(s.stopCh)
	s.wg.Wait()
}

// Active reports whether a validation run is currently executing.
func (s *RunService) Active() bool {
	return s.active.Load()
}

// TriggerRun manually starts a validation run with rate limiting.
// Returns ErrRateLimited when called again within the cooldown window.
func (s *RunService) TriggerRun(ctx context.Context) (RunResult, error) {
	s.apiMutex.Lock()
	// Rate limit: 30 seconds cooldown (allows ~2 requests per minute)
	if time.Since(s.lastAPIRun) < 30*time.Second {
		s.apiMutex.Unlock()
		return RunResult{}, ErrRateLimited
	}
	s.lastAPIRun = time.Now()
	s.apiMutex.Unlock()

	return s.doRun(ctx)
}

// doRun fetches the store if needed and validates it. Only one run executes
// at a time.
func (s *RunService) doRun(ctx context.Context) (RunResult, error) {
	s.runOpMutex.Lock()
	defer s.runOpMutex.Unlock()

	s.active.Store(true)
	defer s.active.Store(false)

	path, err := s.resolveStorePath(ctx)
	if err != nil {
		return RunResult{}, err
	}

	run, err := s.validator.ValidateStore(ctx, domain.ValidationRequest{
		StorePath: path,
		Configs:   s.configs,
		Criteria:  s.criteria,
	}, nil)
	if err != nil {
		if run != nil {
			s.history.Add(run)
		}
		return RunResult{}, err
	}
	s.history.Add(run)

	result := RunResult{
		RunID:      run.ID,
		Status:     string(run.Status),
		Layers:     len(run.Items),
		Defects:    run.DefectCount(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if s.interval > 0 {
		result.NextScheduledAt = time.Now().Add(s.interval)
	}
	return result, nil
}

// resolveStorePath downloads the newest store file from object storage when
// one is configured, otherwise returns the configured local path.
func (s *RunService) resolveStorePath(ctx context.Context) (string, error) {
	if s.storage == nil {
		return s.storePath, nil
	}

	objects, err := s.storage.List(ctx)
	if err != nil {
		return "", &domain.StorageError{Operation: "list", Err: err}
	}

	var newest *output.StorageObject
	for i := range objects {
		if !isStoreFile(objects[i].Key) {
			continue
		}
		if newest == nil || objects[i].LastModified > newest.LastModified {
			newest = &objects[i]
		}
	}
	if newest == nil {
		return "", domain.ErrStoreNotFound
	}

	localPath := filepath.Join(s.localPath, filepath.Base(newest.Key))
	if err := s.storage.Download(ctx, newest.Key, localPath); err != nil {
		return "", &domain.StorageError{Operation: "download", Key: newest.Key, Err: err}
	}
	s.logger.Info("store fetched from storage", "key", newest.Key, "path", localPath)
	return localPath, nil
}

// isStoreFile reports whether an object key looks like a vector store file.
func isStoreFile(key string) bool {
	return strings.EqualFold(filepath.Ext(key), ".gpkg")
}
