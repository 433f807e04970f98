package detect

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// SelfOverlap reports polygons whose rings overlap themselves according to
// the planar validity operator. The operator's offending coordinate is
// preferred as the representative point; the envelope center is the
// fallback.
func SelfOverlap(ctx context.Context, cur output.FeatureCursor, pv output.PlanarValidator) (Outcome, error) {
	var details []domain.GeometryErrorDetail

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		if f.Geometry.Null || f.Geometry.Empty || !f.Geometry.IsPolygon() {
			return nil
		}

		verdict, err := pv.ValidateWKT(f.Geometry.WKT)
		if err != nil {
			return err
		}
		if verdict.Valid {
			return nil
		}

		point := f.Geometry.EnvelopeCenter()
		if verdict.Location != nil {
			point = *verdict.Location
		}
		msg := "ring self-overlap"
		if verdict.Reason != "" {
			msg = verdict.Reason
		}

		details = append(details, domain.GeometryErrorDetail{
			FeatureRef: f.Ref(),
			Type:       domain.DefectSelfOverlap,
			Message:    msg,
			Point:      point,
			WKT:        f.Geometry.WKT,
		})
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return Ran(details, processed), nil
}
