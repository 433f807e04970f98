package domain

import "testing"

func newTestItem() *GeometryValidationItem {
	return NewValidationItem("buildings", &Layer{
		Name:         "buildings",
		GeometryType: "POLYGON",
		FeatureCount: 100,
	})
}

func TestNewValidationItemSeedsSkipped(t *testing.T) {
	item := newTestItem()

	if item.Table != "buildings" {
		t.Errorf("Table = %q, want buildings", item.Table)
	}
	if item.TotalFeatures != 100 {
		t.Errorf("TotalFeatures = %d, want 100", item.TotalFeatures)
	}

	if len(item.Statuses) != len(CheckOrder) {
		t.Fatalf("len(Statuses) = %d, want %d", len(item.Statuses), len(CheckOrder))
	}
	for _, kind := range CheckOrder {
		if item.Statuses[kind] != StatusSkipped {
			t.Errorf("Statuses[%s] = %s, want %s", kind, item.Statuses[kind], StatusSkipped)
		}
	}
}

func TestAddDetailsKeepsCountsInLockstep(t *testing.T) {
	item := newTestItem()

	item.AddDetails([]GeometryErrorDetail{
		{FeatureRef: "1", Type: DefectSpike},
		{FeatureRef: "2", Type: DefectSpike},
		{FeatureRef: "3", Type: DefectMinPoints},
	})
	item.AddDetails([]GeometryErrorDetail{
		{FeatureRef: "4", Type: DefectSpike},
	})

	if got := item.CountFor(DefectSpike); got != 3 {
		t.Errorf("CountFor(spike) = %d, want 3", got)
	}
	if got := item.CountFor(DefectMinPoints); got != 1 {
		t.Errorf("CountFor(min_points) = %d, want 1", got)
	}
	if got := item.CountFor(DefectNull); got != 0 {
		t.Errorf("CountFor(null) = %d, want 0", got)
	}
	if got := item.DefectCount(); got != 4 {
		t.Errorf("DefectCount() = %d, want 4", got)
	}

	// The invariant: every count matches the number of details of that type.
	perType := make(map[DefectType]int)
	for _, d := range item.Details {
		perType[d.Type]++
	}
	for defectType, n := range item.Counts {
		if perType[defectType] != n {
			t.Errorf("Counts[%s] = %d but %d details carry it", defectType, n, perType[defectType])
		}
	}
}

func TestSetStatus(t *testing.T) {
	item := newTestItem()

	item.SetStatus(CheckSpike, StatusRan)
	item.SetStatus(CheckSliver, StatusNotImplemented)

	if item.Statuses[CheckSpike] != StatusRan {
		t.Errorf("Statuses[spike] = %s, want %s", item.Statuses[CheckSpike], StatusRan)
	}
	if item.Statuses[CheckSliver] != StatusNotImplemented {
		t.Errorf("Statuses[sliver] = %s, want %s", item.Statuses[CheckSliver], StatusNotImplemented)
	}
	// Untouched checks stay skipped.
	if item.Statuses[CheckBasic] != StatusSkipped {
		t.Errorf("Statuses[basic] = %s, want %s", item.Statuses[CheckBasic], StatusSkipped)
	}
}

func TestValidationRunDefectCount(t *testing.T) {
	first := newTestItem()
	first.AddDetails([]GeometryErrorDetail{
		{FeatureRef: "1", Type: DefectNull},
		{FeatureRef: "2", Type: DefectSpike},
	})

	second := NewValidationItem("roads", &Layer{Name: "roads", GeometryType: "LINESTRING"})
	second.AddDetails([]GeometryErrorDetail{
		{FeatureRef: "9", Type: DefectUndershoot},
	})

	run := &ValidationRun{
		ID:    "run-1",
		Items: []*GeometryValidationItem{first, second},
	}

	if got := run.DefectCount(); got != 3 {
		t.Errorf("DefectCount() = %d, want 3", got)
	}
}

func TestValidationRunItemFor(t *testing.T) {
	run := &ValidationRun{
		Items: []*GeometryValidationItem{newTestItem()},
	}

	if item, ok := run.ItemFor("buildings"); !ok || item.LayerName != "buildings" {
		t.Errorf("ItemFor(buildings) = %v, %v", item, ok)
	}
	if _, ok := run.ItemFor("rivers"); ok {
		t.Error("ItemFor(rivers) should report absence")
	}
}

func TestCheckConfigEnabled(t *testing.T) {
	cfg := CheckConfig{
		Table:      "roads",
		Duplicate:  true,
		Undershoot: true,
	}

	// Basic validity is unconditional.
	if !cfg.Enabled(CheckBasic) {
		t.Error("basic check must always be enabled")
	}
	if !cfg.Enabled(CheckDuplicate) {
		t.Error("duplicate should be enabled")
	}
	if cfg.Enabled(CheckOverlap) {
		t.Error("overlap should be disabled")
	}

	// The network check runs when either of its defect classes is wanted.
	if !cfg.Enabled(CheckNetwork) {
		t.Error("network should run for undershoot alone")
	}
	cfg.Undershoot = false
	cfg.Overshoot = true
	if !cfg.Enabled(CheckNetwork) {
		t.Error("network should run for overshoot alone")
	}
	cfg.Overshoot = false
	if cfg.Enabled(CheckNetwork) {
		t.Error("network should be disabled with both classes off")
	}
}
