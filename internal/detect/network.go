package detect

import (
	"context"
	"fmt"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

type networkLine struct {
	ref    string
	wkt    string
	coords []domain.Coordinate
}

// Network finds line endpoints that fail to connect to the rest of the
// layer. An endpoint touching another line within connectEpsilon is
// connected; an endpoint whose nearest other line sits between the epsilon
// and the search distance is a gap. The gap is an overshoot when the nearest
// point on the other line is one of that line's own endpoints, an undershoot
// when it lands mid-span. At most one gap is reported per feature, and the
// emitted set is filtered by which of the two classes the caller asked for.
//
// Every endpoint is compared against every other line, so the cost is
// quadratic in the layer's line count.
func Network(ctx context.Context, cur output.FeatureCursor, searchDistance float64, wantUndershoot, wantOvershoot bool) (Outcome, error) {
	var lines []networkLine

	processed, err := eachFeature(ctx, cur, func(f *domain.Feature) error {
		if f.Geometry.Null || f.Geometry.Empty || !f.Geometry.IsLine() {
			return nil
		}
		sh, err := decodeShape(f.Geometry.WKT)
		if err != nil {
			return err
		}
		coords := firstLineCoords(sh)
		if len(coords) < 2 {
			return nil
		}
		lines = append(lines, networkLine{ref: f.Ref(), wkt: f.Geometry.WKT, coords: coords})
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	if len(lines) < 2 {
		return Ran(nil, processed), nil
	}

	var details []domain.GeometryErrorDetail
	for i := range lines {
		if d, found := firstGap(lines, i, searchDistance); found {
			if (d.Type == domain.DefectUndershoot && wantUndershoot) ||
				(d.Type == domain.DefectOvershoot && wantOvershoot) {
				details = append(details, d)
			}
		}
	}

	return Ran(details, processed), nil
}

// firstGap checks both endpoints of line i in order and returns the first
// disconnected one, classified against the closest other line.
func firstGap(lines []networkLine, i int, searchDistance float64) (domain.GeometryErrorDetail, bool) {
	line := lines[i]
	endpoints := []domain.Coordinate{line.coords[0], line.coords[len(line.coords)-1]}

	for _, endpoint := range endpoints {
		connected := false
		best := searchDistance
		var bestLine *networkLine
		var bestPoint domain.Coordinate

		for j := range lines {
			if j == i {
				continue
			}
			near, dist := nearestOnLine(endpoint, lines[j].coords)
			if dist <= connectEpsilon {
				connected = true
				break
			}
			if dist < best {
				best = dist
				bestLine = &lines[j]
				bestPoint = near
			}
		}

		if connected || bestLine == nil {
			continue
		}

		defect := domain.DefectUndershoot
		first := bestLine.coords[0]
		last := bestLine.coords[len(bestLine.coords)-1]
		if bestPoint.DistanceTo(first) <= connectEpsilon || bestPoint.DistanceTo(last) <= connectEpsilon {
			defect = domain.DefectOvershoot
		}

		return domain.GeometryErrorDetail{
			FeatureRef: line.ref,
			Type:       defect,
			Message:    fmt.Sprintf("endpoint gap %.3f to nearest line", best),
			Point:      endpoint,
			WKT: fmt.Sprintf("LINESTRING (%g %g, %g %g)",
				endpoint.X, endpoint.Y, bestPoint.X, bestPoint.Y),
		}, true
	}

	return domain.GeometryErrorDetail{}, false
}

// firstLineCoords returns the coordinates of a line geometry, taking only
// the first component of a multiline.
func firstLineCoords(sh shape) []domain.Coordinate {
	if sh.kind != shapeLine || len(sh.lines) == 0 {
		return nil
	}
	return sh.lines[0]
}
