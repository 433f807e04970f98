// Package proximity implements the spatially indexed duplicate/overlap
// checker. Candidate pairs come from a uniform grid over geometry envelopes,
// the verdict from GEOS predicates.
package proximity

import (
	"math"

	"github.com/twpayne/go-geos"
)

type cellKey struct{ x, y int }

// indexedGeometry couples a parsed GEOS geometry with the feature identity
// copied out of the cursor.
type indexedGeometry struct {
	ref   string
	wkt   string
	geom  *geos.Geom
	order int
}

// gridIndex buckets geometries into uniform cells keyed by their envelope.
// A geometry spanning multiple cells is registered in each of them.
type gridIndex struct {
	cellSize float64
	cells    map[cellKey][]*indexedGeometry
	all      []*indexedGeometry
}

func newGridIndex(cellSize float64) *gridIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &gridIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*indexedGeometry),
	}
}

func (gi *gridIndex) add(ig *indexedGeometry) {
	gi.all = append(gi.all, ig)

	bounds := ig.geom.Bounds()
	if bounds == nil {
		return
	}
	gi.eachCell(bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY, func(key cellKey) {
		gi.cells[key] = append(gi.cells[key], ig)
	})
}

// neighbors returns the distinct geometries sharing a cell with the given
// envelope expanded by the margin, excluding the geometry itself.
func (gi *gridIndex) neighbors(ig *indexedGeometry, margin float64) []*indexedGeometry {
	bounds := ig.geom.Bounds()
	if bounds == nil {
		return nil
	}

	seen := make(map[int]*indexedGeometry)
	gi.eachCell(bounds.MinX-margin, bounds.MinY-margin, bounds.MaxX+margin, bounds.MaxY+margin, func(key cellKey) {
		for _, candidate := range gi.cells[key] {
			if candidate != ig {
				seen[candidate.order] = candidate
			}
		}
	})

	out := make([]*indexedGeometry, 0, len(seen))
	for _, candidate := range seen {
		out = append(out, candidate)
	}
	return out
}

func (gi *gridIndex) eachCell(minX, minY, maxX, maxY float64, fn func(cellKey)) {
	minCellX := int(math.Floor(minX / gi.cellSize))
	minCellY := int(math.Floor(minY / gi.cellSize))
	maxCellX := int(math.Floor(maxX / gi.cellSize))
	maxCellY := int(math.Floor(maxY / gi.cellSize))

	for x := minCellX; x <= maxCellX; x++ {
		for y := minCellY; y <= maxCellY; y++ {
			fn(cellKey{x, y})
		}
	}
}

// destroy releases every native geometry held by the index.
func (gi *gridIndex) destroy() {
	for _, ig := range gi.all {
		ig.geom.Destroy()
	}
	gi.all = nil
	gi.cells = nil
}
