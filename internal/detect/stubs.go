package detect

import (
	"context"

	"github.com/jobrunner/geolint/internal/ports/output"
)

// The following checks are configurable but have no detection logic yet.
// They report a distinct not-implemented status so that enabling them does
// not look like a clean pass.

func Sliver(ctx context.Context, cur output.FeatureCursor) (Outcome, error) {
	return NotImplemented(), nil
}

func ShortObject(ctx context.Context, cur output.FeatureCursor) (Outcome, error) {
	return NotImplemented(), nil
}

func SmallArea(ctx context.Context, cur output.FeatureCursor) (Outcome, error) {
	return NotImplemented(), nil
}

func PolygonInPolygon(ctx context.Context, cur output.FeatureCursor) (Outcome, error) {
	return NotImplemented(), nil
}
