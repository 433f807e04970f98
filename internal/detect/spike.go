package detect

import (
	"context"
	"fmt"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// Spikes reports polygon vertices whose interior angle is sharper than the
// given threshold in degrees. Every consecutive vertex triple of every ring
// is examined; only the first spike found per feature is reported.
func Spikes(ctx context.Context, cur output.FeatureCursor, angleThresholdDeg float64) (Outcome, error) {
	var details []domain.GeometryErrorDetail

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		if f.Geometry.Null || f.Geometry.Empty || !f.Geometry.IsPolygon() {
			return nil
		}

		sh, err := decodeShape(f.Geometry.WKT)
		if err != nil {
			return err
		}

		angle, found := firstSpike(sh, angleThresholdDeg)
		if found {
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: f.Ref(),
				Type:       domain.DefectSpike,
				Message:    fmt.Sprintf("spike angle %.2f below threshold %.2f", angle, angleThresholdDeg),
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

func firstSpike(sh shape, threshold float64) (float64, bool) {
	for _, rings := range sh.polygons {
		for _, ring := range rings {
			for j := 0; j+2 < len(ring); j++ {
				a := angleDegrees(ring[j], ring[j+1], ring[j+2])
				if a < threshold {
					return a, true
				}
			}
		}
	}
	return 0, false
}
