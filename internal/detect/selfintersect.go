package detect

import (
	"context"
	"fmt"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// SelfIntersection runs the planar geometry library's topological validity
// test on every non-empty feature. This is a deliberate second opinion: the
// planar check catches self-intersection classes the store's native validity
// predicate misses, and vice versa.
func SelfIntersection(ctx context.Context, cur output.FeatureCursor, pv output.PlanarValidator) (Outcome, error) {
	var details []domain.GeometryErrorDetail

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		if f.Geometry.Null || f.Geometry.Empty {
			return nil
		}

		verdict, err := pv.ValidateWKT(f.Geometry.WKT)
		if err != nil {
			return err
		}
		if verdict.Valid {
			return nil
		}

		details = append(details, domain.GeometryErrorDetail{
			FeatureRef: f.Ref(),
			Type:       domain.DefectSelfIntersection,
			Message:    fmt.Sprintf("self-intersection: %s", verdict.Reason),
			Point:      f.Geometry.EnvelopeCenter(),
			WKT:        f.Geometry.WKT,
		})
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return Ran(details, processed), nil
}
