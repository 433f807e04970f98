package detect

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// BasicValidity flags null, empty, and natively invalid geometries. Checks
// fire in priority order null, empty, invalid; at most one error per feature.
func BasicValidity(ctx context.Context, cur output.FeatureCursor) (Outcome, error) {
	var details []domain.GeometryErrorDetail

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		switch {
		case f.Geometry.Null:
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: f.Ref(),
				Type:       domain.DefectNull,
				Message:    "geometry is null",
			})

		case f.Geometry.Empty:
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: f.Ref(),
				Type:       domain.DefectEmpty,
				Message:    "geometry is empty",
			})

		case !f.Geometry.NativeValid:
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: f.Ref(),
				Type:       domain.DefectInvalid,
				Message:    "geometry fails the store validity check",
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
