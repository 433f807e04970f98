package detect

import (
	"context"
	"testing"

	"github.com/jobrunner/geolint/internal/domain"
)

func TestBasicValidity(t *testing.T) {
	nullFeature := &domain.Feature{ID: 1, Geometry: domain.Geometry{Null: true}}
	emptyFeature := &domain.Feature{ID: 2, Geometry: domain.Geometry{Type: "POLYGON", Empty: true}}
	invalidFeature := &domain.Feature{
		ID: 3,
		Geometry: domain.Geometry{
			Type:        "POLYGON",
			WKT:         "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))",
			NativeValid: false,
			Envelope:    &domain.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		},
	}
	validFeature := polygonFeature(4, "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))")

	cur := newSliceCursor(nullFeature, emptyFeature, invalidFeature, validFeature)

	out, err := BasicValidity(context.Background(), cur)
	if err != nil {
		t.Fatalf("BasicValidity() error = %v", err)
	}
	if out.Status != domain.StatusRan {
		t.Errorf("status = %v, want %v", out.Status, domain.StatusRan)
	}
	if out.Processed != 4 {
		t.Errorf("processed = %d, want 4", out.Processed)
	}
	if len(out.Details) != 3 {
		t.Fatalf("details = %d, want 3", len(out.Details))
	}
	if cur.resets != 1 {
		t.Errorf("cursor resets = %d, want 1", cur.resets)
	}

	wantTypes := []domain.DefectType{domain.DefectNull, domain.DefectEmpty, domain.DefectInvalid}
	for i, d := range out.Details {
		if d.Type != wantTypes[i] {
			t.Errorf("details[%d].Type = %v, want %v", i, d.Type, wantTypes[i])
		}
	}

	if out.Details[2].FeatureRef != "3" {
		t.Errorf("details[2].FeatureRef = %q, want %q", out.Details[2].FeatureRef, "3")
	}
	if out.Details[2].Point != (domain.Coordinate{X: 5, Y: 5}) {
		t.Errorf("details[2].Point = %v, want envelope center", out.Details[2].Point)
	}
	if out.Details[2].WKT == "" {
		t.Error("details[2].WKT is empty, want WKT export for invalid geometry")
	}
}

func TestBasicValidityNullTakesPriority(t *testing.T) {
	// A null geometry must report only the null defect even though it would
	// also fail every later check.
	f := &domain.Feature{ID: 7, Geometry: domain.Geometry{Null: true, NativeValid: false}}

	out, err := BasicValidity(context.Background(), newSliceCursor(f))
	if err != nil {
		t.Fatalf("BasicValidity() error = %v", err)
	}
	if len(out.Details) != 1 {
		t.Fatalf("details = %d, want 1", len(out.Details))
	}
	if out.Details[0].Type != domain.DefectNull {
		t.Errorf("type = %v, want %v", out.Details[0].Type, domain.DefectNull)
	}
}
