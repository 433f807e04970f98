// Package detect implements the per-defect geometry detectors and the planar
// vertex/ring helpers they share. All math here is Euclidean; callers are
// responsible for feeding projected coordinates.
package detect

import (
	"math"

	geom "github.com/twpayne/go-geom"

	"github.com/jobrunner/geolint/internal/domain"
)

// connectEpsilon is the machine tolerance under which two coordinates are
// considered coincident for connectivity purposes.
const connectEpsilon = 1e-9

// coordsOf flattens a coordinate sequence to 2-D domain coordinates,
// dropping any Z/M ordinates.
func coordsOf(cs []geom.Coord) []domain.Coordinate {
	out := make([]domain.Coordinate, len(cs))
	for i, c := range cs {
		out[i] = domain.Coordinate{X: c[0], Y: c[1]}
	}
	return out
}

// angleDegrees computes the interior angle at p2 formed by the triple
// (p1, p2, p3): the angle between the vectors p1-p2 and p3-p2, in degrees.
// A zero-length vector makes the angle undefined; degenerate triples are
// reported as 180 so they never register as spikes.
func angleDegrees(p1, p2, p3 domain.Coordinate) float64 {
	v1x, v1y := p1.X-p2.X, p1.Y-p2.Y
	v2x, v2y := p3.X-p2.X, p3.Y-p2.Y

	len1 := math.Hypot(v1x, v1y)
	len2 := math.Hypot(v2x, v2y)
	if len1 == 0 || len2 == 0 {
		return 180
	}

	cos := (v1x*v2x + v1y*v2y) / (len1 * len2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// ringClosed reports whether a ring's first and last vertex coincide within
// tolerance. Compared on squared distance.
func ringClosed(ring []domain.Coordinate, tolerance float64) bool {
	if len(ring) < 2 {
		return false
	}
	return ring[0].SquaredDistanceTo(ring[len(ring)-1]) <= tolerance*tolerance
}

// uniqueVertexCount counts distinct vertices after snapping each one to a
// grid of cell size `tolerance`. When the ring is closed within tolerance the
// duplicated closing vertex is excluded from the count.
func uniqueVertexCount(ring []domain.Coordinate, tolerance float64) int {
	if len(ring) == 0 {
		return 0
	}
	if tolerance <= 0 {
		tolerance = connectEpsilon
	}

	vertices := ring
	if ringClosed(ring, tolerance) {
		vertices = ring[:len(ring)-1]
	}

	type cell struct{ x, y int64 }
	scale := 1 / tolerance
	seen := make(map[cell]struct{}, len(vertices))
	for _, v := range vertices {
		seen[cell{
			x: int64(math.Round(v.X * scale)),
			y: int64(math.Round(v.Y * scale)),
		}] = struct{}{}
	}
	return len(seen)
}

// nearestOnSegment returns the closest point to p on the segment a-b and the
// distance to it.
func nearestOnSegment(p, a, b domain.Coordinate) (domain.Coordinate, float64) {
	abx, aby := b.X-a.X, b.Y-a.Y
	segLenSq := abx*abx + aby*aby
	if segLenSq == 0 {
		return a, p.DistanceTo(a)
	}

	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / segLenSq
	t = math.Max(0, math.Min(1, t))
	nearest := domain.Coordinate{X: a.X + t*abx, Y: a.Y + t*aby}
	return nearest, p.DistanceTo(nearest)
}

// nearestOnLine returns the closest point to p on a polyline and the distance
// to it.
func nearestOnLine(p domain.Coordinate, line []domain.Coordinate) (domain.Coordinate, float64) {
	best := domain.Coordinate{}
	bestDist := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		nearest, d := nearestOnSegment(p, line[i], line[i+1])
		if d < bestDist {
			best, bestDist = nearest, d
		}
	}
	if len(line) == 1 {
		return line[0], p.DistanceTo(line[0])
	}
	return best, bestDist
}
