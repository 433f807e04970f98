package detect

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// Outcome is the result of running one detector over one layer. The status
// keeps "not yet implemented" distinguishable from "ran and found nothing":
// enabling a stubbed check must not create the impression it was evaluated.
type Outcome struct {
	Status    domain.CheckStatus
	Details   []domain.GeometryErrorDetail
	Processed int64 // Features the detector iterated
}

// Ran wraps detector findings in a completed outcome.
func Ran(details []domain.GeometryErrorDetail, processed int64) Outcome {
	return Outcome{Status: domain.StatusRan, Details: details, Processed: processed}
}

// NotImplemented marks a declared check that has no implementation yet.
func NotImplemented() Outcome {
	return Outcome{Status: domain.StatusNotImplemented}
}

// eachFeature rewinds the cursor and applies fn to every feature. The cursor
// is owned exclusively by the calling detector for the duration; features are
// valid only within the callback.
func eachFeature(ctx context.Context, cur output.FeatureCursor, fn func(*domain.Feature) error) (int64, error) {
	if err := cur.ResetReading(ctx); err != nil {
		return 0, err
	}

	var n int64
	for {
		f, err := cur.NextFeature(ctx)
		if err != nil {
			return n, err
		}
		if f == nil {
			return n, nil
		}
		n++
		if err := fn(f); err != nil {
			return n, err
		}
	}
}
