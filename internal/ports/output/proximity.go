package output

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
)

// ProximityChecker defines the secondary port for the spatially indexed
// duplicate/overlap validator. It shares the tolerance and error-detail
// contract of the in-process detectors but is implemented separately because
// it needs a spatial index the per-feature detectors do not.
type ProximityChecker interface {
	// CheckDuplicates reports features that coincide within tolerance.
	CheckDuplicates(ctx context.Context, cur FeatureCursor, tolerance float64) ([]domain.GeometryErrorDetail, error)

	// CheckOverlaps reports features whose interiors overlap within tolerance.
	CheckOverlaps(ctx context.Context, cur FeatureCursor, tolerance float64) ([]domain.GeometryErrorDetail, error)
}
