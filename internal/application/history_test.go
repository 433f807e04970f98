package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jobrunner/geolint/internal/domain"
)

func TestRunHistoryAddAndGet(t *testing.T) {
	history := NewRunHistory(5)
	ctx := context.Background()

	run := &domain.ValidationRun{ID: "run-1", Status: domain.RunComplete}
	history.Add(run)

	got, err := history.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.ID != "run-1" {
		t.Errorf("ID = %q, want %q", got.ID, "run-1")
	}

	if history.Count() != 1 {
		t.Errorf("Count() = %d, want 1", history.Count())
	}
}

func TestRunHistoryGetNotFound(t *testing.T) {
	history := NewRunHistory(5)

	_, err := history.GetRun(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrRunNotFound)
	}
}

func TestRunHistoryNewestFirst(t *testing.T) {
	history := NewRunHistory(5)

	for i := 1; i <= 3; i++ {
		history.Add(&domain.ValidationRun{ID: fmt.Sprintf("run-%d", i)})
	}

	runs, err := history.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	if runs[0].ID != "run-3" {
		t.Errorf("runs[0].ID = %q, want the newest run first", runs[0].ID)
	}
	if history.Latest().ID != "run-3" {
		t.Errorf("Latest().ID = %q, want %q", history.Latest().ID, "run-3")
	}
}

func TestRunHistoryEvictsOldest(t *testing.T) {
	history := NewRunHistory(2)

	for i := 1; i <= 4; i++ {
		history.Add(&domain.ValidationRun{ID: fmt.Sprintf("run-%d", i)})
	}

	if history.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", history.Count())
	}
	if _, err := history.GetRun(context.Background(), "run-1"); err == nil {
		t.Error("run-1 still retrievable, want it evicted")
	}
	if _, err := history.GetRun(context.Background(), "run-4"); err != nil {
		t.Errorf("run-4 not retrievable: %v", err)
	}
}

func TestRunHistoryLatestEmpty(t *testing.T) {
	history := NewRunHistory(5)
	if history.Latest() != nil {
		t.Error("Latest() on empty history should be nil")
	}
}
