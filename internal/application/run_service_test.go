package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/input"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// mockValidator implements input.GeometryValidator for testing.
type mockValidator struct {
	run   *domain.ValidationRun
	err   error
	calls int
	paths []string
}

func (m *mockValidator) ValidateStore(_ context.Context, req domain.ValidationRequest, _ input.ProgressSink) (*domain.ValidationRun, error) {
	m.calls++
	m.paths = append(m.paths, req.StorePath)
	if m.err != nil {
		return nil, m.err
	}
	if m.run != nil {
		return m.run, nil
	}
	return &domain.ValidationRun{ID: "run-1", StorePath: req.StorePath, Status: domain.RunComplete}, nil
}

func newTestRunService(validator *mockValidator, storage *mockStorage) (*RunService, *RunHistory) {
	history := NewRunHistory(10)
	var svc *RunService
	if storage != nil {
		svc = NewRunService(validator, history, storage, testLogger(), 0, "/tmp", "", nil, domain.DefaultCriteria())
	} else {
		svc = NewRunService(validator, history, nil, testLogger(), 0, "", "/data/parcels.gpkg", nil, domain.DefaultCriteria())
	}
	return svc, history
}

func TestTriggerRun(t *testing.T) {
	validator := &mockValidator{}
	svc, history := newTestRunService(validator, nil)

	result, err := svc.TriggerRun(context.Background())
	if err != nil {
		t.Fatalf("TriggerRun failed: %v", err)
	}
	if result.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", result.RunID, "run-1")
	}
	if validator.calls != 1 {
		t.Errorf("validator calls = %d, want 1", validator.calls)
	}
	if validator.paths[0] != "/data/parcels.gpkg" {
		t.Errorf("store path = %q, want the configured local path", validator.paths[0])
	}
	if history.Count() != 1 {
		t.Errorf("history count = %d, want the run recorded", history.Count())
	}
}

func TestTriggerRunRateLimited(t *testing.T) {
	validator := &mockValidator{}
	svc, _ := newTestRunService(validator, nil)

	if _, err := svc.TriggerRun(context.Background()); err != nil {
		t.Fatalf("first TriggerRun failed: %v", err)
	}
	_, err := svc.TriggerRun(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("second trigger err = %v, want %v", err, ErrRateLimited)
	}
	if validator.calls != 1 {
		t.Errorf("validator calls = %d, want 1", validator.calls)
	}
}

func TestTriggerRunFetchesNewestStore(t *testing.T) {
	validator := &mockValidator{}
	st := &mockStorage{objects: []output.StorageObject{
		{Key: "old.gpkg", LastModified: 100},
		{Key: "readme.txt", LastModified: 300},
		{Key: "new.gpkg", LastModified: 200},
	}}
	svc, _ := newTestRunService(validator, st)

	result, err := svc.TriggerRun(context.Background())
	if err != nil {
		t.Fatalf("TriggerRun failed: %v", err)
	}
	if result.Status != string(domain.RunComplete) {
		t.Errorf("status = %q, want %q", result.Status, domain.RunComplete)
	}
	if len(st.downloaded) != 1 || st.downloaded[0] != "new.gpkg" {
		t.Errorf("downloaded = %v, want only the newest .gpkg object", st.downloaded)
	}
}

func TestTriggerRunNoStoreInStorage(t *testing.T) {
	validator := &mockValidator{}
	st := &mockStorage{objects: []output.StorageObject{{Key: "notes.txt", LastModified: 100}}}
	svc, _ := newTestRunService(validator, st)

	_, err := svc.TriggerRun(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrStoreNotFound)
	}
	if validator.calls != 0 {
		t.Errorf("validator calls = %d, want 0", validator.calls)
	}
}

func TestRunServiceStartStop(t *testing.T) {
	validator := &mockValidator{}
	history := NewRunHistory(10)
	svc := NewRunService(validator, history, nil, testLogger(),
		50*time.Millisecond, "", "/data/parcels.gpkg", nil, domain.DefaultCriteria())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	time.Sleep(120 * time.Millisecond)
	svc.Stop()

	if validator.calls == 0 {
		t.Error("scheduler never ran a validation")
	}
}

func TestIsStoreFile(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"parcels.gpkg", true},
		{"data/PARCELS.GPKG", true},
		{"readme.md", false},
		{"parcels.gpkg.bak", false},
	}
	for _, tt := range tests {
		if got := isStoreFile(tt.key); got != tt.want {
			t.Errorf("isStoreFile(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
