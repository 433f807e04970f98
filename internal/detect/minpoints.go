package detect

import (
	"context"
	"fmt"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// MinPoints verifies that line components carry at least two points and that
// polygon rings are closed with at least three unique vertices after the
// duplicated closing vertex is discounted. Point layers are skipped. The
// first failure found stops evaluation for that feature: exactly one error
// per feature.
func MinPoints(ctx context.Context, cur output.FeatureCursor, ringTolerance float64) (Outcome, error) {
	var details []domain.GeometryErrorDetail

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		if f.Geometry.Null || f.Geometry.Empty || f.Geometry.IsPoint() {
			return nil
		}

		sh, err := decodeShape(f.Geometry.WKT)
		if err != nil {
			return err
		}

		var msg string
		switch sh.kind {
		case shapeLine:
			msg = checkLineComponents(sh.lines)
		case shapePolygon:
			for i, rings := range sh.polygons {
				if m := checkPolygonRings(rings, ringTolerance); m != "" {
					msg = m
					if sh.multi {
						msg = fmt.Sprintf("polygon %d: %s", i, m)
					}
					break
				}
			}
		default:
			return nil
		}

		if msg != "" {
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: f.Ref(),
				Type:       domain.DefectMinPoints,
				Message:    msg,
				Point:      f.Geometry.EnvelopeCenter(),
				WKT:        f.Geometry.WKT,
			})
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return Ran(details, processed), nil
}

// checkLineComponents returns a failure message for the first deficient line
// component. A geometry with zero components trips the floor message; that
// happens when a source hands over component-less multiline text without
// marking the row empty.
func checkLineComponents(lines [][]domain.Coordinate) string {
	if len(lines) == 0 {
		return "geometry has no line components"
	}
	for i, line := range lines {
		if len(line) < 2 {
			return fmt.Sprintf("line component %d has %d points, need at least 2", i, len(line))
		}
	}
	return ""
}

// checkPolygonRings returns a failure message for the first deficient ring of
// a polygon, or "" when all rings pass.
func checkPolygonRings(rings [][]domain.Coordinate, tolerance float64) string {
	for i, ring := range rings {
		if !ringClosed(ring, tolerance) {
			return fmt.Sprintf("ring %d is not closed", i)
		}
		if n := uniqueVertexCount(ring, tolerance); n < 3 {
			return fmt.Sprintf("ring %d has %d unique vertices, need at least 3", i, n)
		}
	}
	return ""
}
