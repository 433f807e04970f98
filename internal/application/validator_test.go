package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/input"
	"github.com/jobrunner/geolint/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func polyFeature(id int64, wkt string, valid bool) *domain.Feature {
	return &domain.Feature{
		ID: id,
		Geometry: domain.Geometry{
			Type:        "POLYGON",
			WKT:         wkt,
			NativeValid: valid,
			Envelope:    &domain.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		},
	}
}

func testStore() *domain.Store {
	return &domain.Store{
		ID:   "parcels",
		Name: "parcels",
		Path: "/data/parcels.gpkg",
		Layers: []domain.Layer{
			{Name: "buildings", GeometryType: "POLYGON", SRID: 25832, FeatureCount: 2},
			{Name: "roads", GeometryType: "LINESTRING", SRID: 25832, FeatureCount: 1},
		},
	}
}

func newTestService(source *mockSource, failFast bool) *ValidationService {
	return NewValidationService(
		source,
		&mockPlanar{},
		&mockProximity{},
		&output.NoOpMetrics{},
		testLogger(),
		failFast,
	)
}

func TestValidateStore(t *testing.T) {
	source := &mockSource{
		store: testStore(),
		features: map[string][]*domain.Feature{
			"buildings": {
				polyFeature(1, "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))", true),
				polyFeature(2, "POLYGON ((0 0, 10 10, 10 0, 0 10, 0 0))", false),
			},
		},
	}
	svc := newTestService(source, false)

	var lastPercent int
	progress := input.ProgressFunc(func(percent int, _ string) { lastPercent = percent })

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings", MinPoints: true}},
		Criteria:  domain.DefaultCriteria(),
	}, progress)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	if run.Status != domain.RunComplete {
		t.Errorf("status = %v, want %v", run.Status, domain.RunComplete)
	}
	if len(run.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(run.Items))
	}

	item := run.Items[0]
	if item.LayerName != "buildings" {
		t.Errorf("layer = %q, want %q", item.LayerName, "buildings")
	}
	if item.TotalFeatures != 2 {
		t.Errorf("total features = %d, want 2", item.TotalFeatures)
	}
	if item.ProcessedFeatures != 2 {
		t.Errorf("processed features = %d, want 2", item.ProcessedFeatures)
	}
	if item.CountFor(domain.DefectInvalid) != 1 {
		t.Errorf("invalid count = %d, want 1", item.CountFor(domain.DefectInvalid))
	}
	if item.Statuses[domain.CheckBasic] != domain.StatusRan {
		t.Errorf("basic status = %v, want %v", item.Statuses[domain.CheckBasic], domain.StatusRan)
	}
	if item.Statuses[domain.CheckMinPoints] != domain.StatusRan {
		t.Errorf("min points status = %v, want %v", item.Statuses[domain.CheckMinPoints], domain.StatusRan)
	}
	if item.Statuses[domain.CheckSpike] != domain.StatusSkipped {
		t.Errorf("spike status = %v, want %v", item.Statuses[domain.CheckSpike], domain.StatusSkipped)
	}
	if lastPercent != 100 {
		t.Errorf("final progress = %d, want 100", lastPercent)
	}
	if source.cursorsOpened != source.cursorsClosed {
		t.Errorf("cursors opened = %d, closed = %d; every cursor must be closed",
			source.cursorsOpened, source.cursorsClosed)
	}
	if len(source.closedStores) != 1 {
		t.Errorf("store close calls = %d, want 1", len(source.closedStores))
	}
}

func TestValidateStoreCountsMatchDetails(t *testing.T) {
	source := &mockSource{
		store: testStore(),
		features: map[string][]*domain.Feature{
			"buildings": {
				{ID: 1, Geometry: domain.Geometry{Null: true}},
				{ID: 2, Geometry: domain.Geometry{Type: "POLYGON", Empty: true}},
				polyFeature(3, "POLYGON ((0 0, 4 0, 0 0))", true),
			},
		},
	}
	svc := newTestService(source, false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings", MinPoints: true}},
		Criteria:  domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	item := run.Items[0]
	total := 0
	for defectType, count := range item.Counts {
		found := 0
		for _, d := range item.Details {
			if d.Type == defectType {
				found++
			}
		}
		if count != found {
			t.Errorf("count for %s = %d, but %d details carry that type", defectType, count, found)
		}
		total += count
	}
	if total != len(item.Details) {
		t.Errorf("sum of counts = %d, details = %d", total, len(item.Details))
	}
}

func TestValidateStoreSkipsUnknownTables(t *testing.T) {
	source := &mockSource{store: testStore()}
	svc := newTestService(source, false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs: []domain.CheckConfig{
			{Table: "buildings"},
			{Table: "no_such_table"},
		},
		Criteria: domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	// The unknown table produces no item at all: not validated, not flagged.
	if len(run.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(run.Items))
	}
	if run.Items[0].Table != "buildings" {
		t.Errorf("table = %q, want %q", run.Items[0].Table, "buildings")
	}
}

func TestValidateStoreStubsReportNotImplemented(t *testing.T) {
	source := &mockSource{
		store: testStore(),
		features: map[string][]*domain.Feature{
			"buildings": {polyFeature(1, "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))", true)},
		},
	}
	svc := newTestService(source, false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings", Sliver: true, SmallArea: true}},
		Criteria:  domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	item := run.Items[0]
	if item.Statuses[domain.CheckSliver] != domain.StatusNotImplemented {
		t.Errorf("sliver status = %v, want %v", item.Statuses[domain.CheckSliver], domain.StatusNotImplemented)
	}
	if item.Statuses[domain.CheckSmallArea] != domain.StatusNotImplemented {
		t.Errorf("small area status = %v, want %v", item.Statuses[domain.CheckSmallArea], domain.StatusNotImplemented)
	}
	if item.CountFor(domain.DefectSliver) != 0 {
		t.Errorf("sliver count = %d, want 0", item.CountFor(domain.DefectSliver))
	}
}

func TestValidateStoreOpenFailureReturnsPartialRun(t *testing.T) {
	source := &mockSource{openErr: errors.New("no such file")}
	svc := newTestService(source, false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/missing.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings"}},
		Criteria:  domain.DefaultCriteria(),
	}, nil)
	// Store failures are logged and carried on the run, not re-thrown.
	if err != nil {
		t.Fatalf("ValidateStore returned error = %v, want nil", err)
	}
	if run.Status != domain.RunPartial {
		t.Errorf("status = %v, want %v", run.Status, domain.RunPartial)
	}
	if run.Error == "" {
		t.Error("run.Error is empty, want the open failure recorded")
	}
	if len(run.Items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(run.Items))
	}
}

func TestValidateStoreCancellation(t *testing.T) {
	source := &mockSource{store: testStore()}
	svc := newTestService(source, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := svc.ValidateStore(ctx, domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings"}},
		Criteria:  domain.DefaultCriteria(),
	}, nil)
	if !errors.Is(err, domain.ErrCanceled) {
		t.Fatalf("err = %v, want %v", err, domain.ErrCanceled)
	}
	if run.Status != domain.RunCanceled {
		t.Errorf("status = %v, want %v", run.Status, domain.RunCanceled)
	}
}

func TestValidateStoreIsolatesLayerPanic(t *testing.T) {
	source := &mockSource{
		store: testStore(),
		features: map[string][]*domain.Feature{
			"roads": {
				{ID: 1, Geometry: domain.Geometry{Type: "LINESTRING", WKT: "LINESTRING (0 0, 5 5)", NativeValid: true}},
			},
		},
		panicOn: map[string]int{"buildings": 1},
	}
	svc := newTestService(source, false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs: []domain.CheckConfig{
			{Table: "buildings"},
			{Table: "roads"},
		},
		Criteria: domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	if run.Status != domain.RunComplete {
		t.Errorf("status = %v, want %v", run.Status, domain.RunComplete)
	}
	if len(run.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2: the panic must stay contained to its layer", len(run.Items))
	}
	if run.Items[0].RunError == "" {
		t.Error("buildings item has no RunError, want the panic recorded")
	}
	if run.Items[1].RunError != "" {
		t.Errorf("roads item RunError = %q, want clean", run.Items[1].RunError)
	}
}

func TestValidateStoreFailFastTruncates(t *testing.T) {
	source := &mockSource{
		store:   testStore(),
		panicOn: map[string]int{"buildings": 1},
	}
	svc := newTestService(source, true)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs: []domain.CheckConfig{
			{Table: "buildings"},
			{Table: "roads"},
		},
		Criteria: domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	if run.Status != domain.RunPartial {
		t.Errorf("status = %v, want %v", run.Status, domain.RunPartial)
	}
	if len(run.Items) != 1 {
		t.Errorf("len(items) = %d, want 1: fail-fast aborts after the failing layer", len(run.Items))
	}
}

func TestValidateStoreDispatchesProximityChecks(t *testing.T) {
	proximity := &mockProximity{
		duplicates: []domain.GeometryErrorDetail{
			{FeatureRef: "2", Type: domain.DefectDuplicate, Message: "duplicate of feature 1"},
		},
	}
	source := &mockSource{store: testStore()}
	svc := NewValidationService(source, &mockPlanar{}, proximity, &output.NoOpMetrics{}, testLogger(), false)

	run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
		StorePath: "/data/parcels.gpkg",
		Configs:   []domain.CheckConfig{{Table: "buildings", Duplicate: true, Overlap: true}},
		Criteria:  domain.DefaultCriteria(),
	}, nil)
	if err != nil {
		t.Fatalf("ValidateStore failed: %v", err)
	}

	if proximity.duplicateCalls != 1 || proximity.overlapCalls != 1 {
		t.Errorf("proximity calls = %d/%d, want 1/1", proximity.duplicateCalls, proximity.overlapCalls)
	}
	if run.Items[0].CountFor(domain.DefectDuplicate) != 1 {
		t.Errorf("duplicate count = %d, want 1", run.Items[0].CountFor(domain.DefectDuplicate))
	}
}

func TestValidateStoreIsDeterministic(t *testing.T) {
	// Two runs over unchanged input must report the same details in the same
	// order: fid-ordered cursors and the fixed check sequence leave no room
	// for iteration-order drift.
	newSource := func() *mockSource {
		return &mockSource{
			store: testStore(),
			features: map[string][]*domain.Feature{
				"buildings": {
					polyFeature(1, "POLYGON ((0 0, 4 0, 0 0))", true),
					polyFeature(2, "POLYGON ((0 0, 10 10, 10 0, 0 10, 0 0))", false),
					polyFeature(3, "POLYGON ((0 0, 10 0, 10 10, 5.001 10, 5 100, 4.999 10, 0 10, 0 0))", true),
				},
			},
		}
	}
	configs := []domain.CheckConfig{{Table: "buildings", MinPoints: true, Spike: true}}

	var runs []*domain.ValidationRun
	for i := 0; i < 2; i++ {
		svc := newTestService(newSource(), false)
		run, err := svc.ValidateStore(context.Background(), domain.ValidationRequest{
			StorePath: "/data/parcels.gpkg",
			Configs:   configs,
			Criteria:  domain.DefaultCriteria(),
		}, nil)
		if err != nil {
			t.Fatalf("ValidateStore run %d failed: %v", i, err)
		}
		runs = append(runs, run)
	}

	first, second := runs[0], runs[1]
	if first.DefectCount() == 0 {
		t.Fatal("fixture produced no defects; the comparison would be vacuous")
	}
	if len(first.Items) != len(second.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		a, b := first.Items[i], second.Items[i]
		if len(a.Details) != len(b.Details) {
			t.Fatalf("layer %q detail counts differ: %d vs %d", a.LayerName, len(a.Details), len(b.Details))
		}
		for j := range a.Details {
			if a.Details[j] != b.Details[j] {
				t.Errorf("layer %q detail %d differs: %+v vs %+v", a.LayerName, j, a.Details[j], b.Details[j])
			}
		}
		for kind, count := range a.Counts {
			if b.Counts[kind] != count {
				t.Errorf("layer %q count for %v differs: %d vs %d", a.LayerName, kind, count, b.Counts[kind])
			}
		}
	}
}
