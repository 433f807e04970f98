package proximity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/twpayne/go-geos"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// Checker implements the ProximityChecker port. It reads the whole layer
// into a grid index once per call, evaluates GEOS predicates on candidate
// pairs only, and destroys every native geometry before returning.
type Checker struct {
	ctx    *geos.Context
	logger *slog.Logger
}

// NewChecker creates a new proximity checker.
func NewChecker(logger *slog.Logger) *Checker {
	return &Checker{
		ctx:    geos.NewContext(),
		logger: logger,
	}
}

// CheckDuplicates implements output.ProximityChecker. Two features are
// duplicates when their geometries are coordinate-wise equal within the
// tolerance; each pair is reported once, on the later feature.
func (c *Checker) CheckDuplicates(ctx context.Context, cur output.FeatureCursor, tolerance float64) ([]domain.GeometryErrorDetail, error) {
	return c.check(ctx, cur, tolerance, domain.DefectDuplicate,
		func(a, b *indexedGeometry) bool {
			return a.geom.EqualsExact(b.geom, tolerance)
		},
		func(other string) string {
			return fmt.Sprintf("duplicate of feature %s", other)
		},
	)
}

// CheckOverlaps implements output.ProximityChecker. Two features overlap when
// their interiors intersect without either containing the other; the
// tolerance widens the candidate search window.
func (c *Checker) CheckOverlaps(ctx context.Context, cur output.FeatureCursor, tolerance float64) ([]domain.GeometryErrorDetail, error) {
	return c.check(ctx, cur, tolerance, domain.DefectOverlap,
		func(a, b *indexedGeometry) bool {
			return a.geom.Overlaps(b.geom)
		},
		func(other string) string {
			return fmt.Sprintf("overlaps feature %s", other)
		},
	)
}

func (c *Checker) check(
	ctx context.Context,
	cur output.FeatureCursor,
	tolerance float64,
	defect domain.DefectType,
	predicate func(a, b *indexedGeometry) bool,
	message func(other string) string,
) ([]domain.GeometryErrorDetail, error) {
	index, err := c.load(ctx, cur)
	if err != nil {
		return nil, err
	}
	defer index.destroy()

	var details []domain.GeometryErrorDetail
	for _, ig := range index.all {
		neighbors := index.neighbors(ig, tolerance)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].order < neighbors[j].order })

		for _, other := range neighbors {
			// Evaluate each pair once, reporting on the later feature.
			if other.order > ig.order {
				continue
			}
			if !predicate(ig, other) {
				continue
			}
			details = append(details, domain.GeometryErrorDetail{
				FeatureRef: ig.ref,
				Type:       defect,
				Message:    message(other.ref),
				Point:      envelopeCenter(ig.geom),
				WKT:        ig.wkt,
			})
			break // one finding per feature and check
		}
	}

	return details, nil
}

// load reads the layer into a grid index. The cell size is derived from the
// average envelope extent so typical features land in a handful of cells.
func (c *Checker) load(ctx context.Context, cur output.FeatureCursor) (*gridIndex, error) {
	if err := cur.ResetReading(ctx); err != nil {
		return nil, err
	}

	var pending []*indexedGeometry
	var extentSum float64
	for {
		f, err := cur.NextFeature(ctx)
		if err != nil {
			destroyAll(pending)
			return nil, err
		}
		if f == nil {
			break
		}
		if f.Geometry.Null || f.Geometry.Empty {
			continue
		}

		g, err := c.ctx.NewGeomFromWKT(f.Geometry.WKT)
		if err != nil {
			c.logger.Warn("skipping unparsable geometry", "feature", f.Ref(), "error", err)
			continue
		}
		pending = append(pending, &indexedGeometry{
			ref:   f.Ref(),
			wkt:   f.Geometry.WKT,
			geom:  g,
			order: len(pending),
		})
		if b := g.Bounds(); b != nil {
			extentSum += (b.MaxX - b.MinX) + (b.MaxY - b.MinY)
		}
	}

	cellSize := 1.0
	if len(pending) > 0 && extentSum > 0 {
		cellSize = extentSum / float64(len(pending)*2)
	}

	index := newGridIndex(cellSize)
	for _, ig := range pending {
		index.add(ig)
	}
	return index, nil
}

func envelopeCenter(g *geos.Geom) domain.Coordinate {
	b := g.Bounds()
	if b == nil {
		return domain.Coordinate{}
	}
	return domain.Coordinate{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
	}
}

func destroyAll(geoms []*indexedGeometry) {
	for _, ig := range geoms {
		ig.geom.Destroy()
	}
}
