package detect

import (
	"fmt"
	"strconv"
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/jobrunner/geolint/internal/domain"
)

// shape is a coordinate-level view of a geometry: its broad kind plus the
// raw vertex lists of its components. The vertex-counting detectors need
// exactly the geometries a strict WKT parser rejects as syntax errors (open
// rings, rings with fewer than four coordinates, one-point lines), so they
// work on this view instead of a parsed geometry object.
type shape struct {
	kind     shapeKind
	multi    bool
	lines    [][]domain.Coordinate   // line components
	polygons [][][]domain.Coordinate // per polygon, its rings
}

type shapeKind int

const (
	shapeOther shapeKind = iota
	shapePoint
	shapeLine
	shapePolygon
)

// decodeShape extracts the vertices of a WKT geometry. Well-formed text goes
// through the library parser; text the library rejects is re-read with a
// permissive scanner so degenerate rings and lines still reach the detectors
// that exist to flag them.
func decodeShape(s string) (shape, error) {
	if g, err := wkt.Unmarshal(s); err == nil {
		return shapeFromGeom(g), nil
	}
	return scanShape(s)
}

func shapeFromGeom(g geom.T) shape {
	switch t := g.(type) {
	case *geom.Point:
		return shape{kind: shapePoint}
	case *geom.MultiPoint:
		return shape{kind: shapePoint, multi: true}
	case *geom.LineString:
		return shape{kind: shapeLine, lines: [][]domain.Coordinate{coordsOf(t.Coords())}}
	case *geom.MultiLineString:
		lines := make([][]domain.Coordinate, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			lines[i] = coordsOf(t.LineString(i).Coords())
		}
		return shape{kind: shapeLine, multi: true, lines: lines}
	case *geom.Polygon:
		return shape{kind: shapePolygon, polygons: [][][]domain.Coordinate{polygonRings(t)}}
	case *geom.MultiPolygon:
		polygons := make([][][]domain.Coordinate, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			polygons[i] = polygonRings(t.Polygon(i))
		}
		return shape{kind: shapePolygon, multi: true, polygons: polygons}
	}
	return shape{kind: shapeOther}
}

func polygonRings(p *geom.Polygon) [][]domain.Coordinate {
	rings := make([][]domain.Coordinate, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		rings[i] = coordsOf(p.LinearRing(i).Coords())
	}
	return rings
}

// scanShape reads WKT without validating geometry rules: any balanced
// nesting of coordinate tuples is accepted. Only the text structure itself
// (keyword, parentheses, numbers) can fail.
func scanShape(s string) (shape, error) {
	rest := strings.TrimSpace(s)
	end := 0
	for end < len(rest) && isWordByte(rest[end]) {
		end++
	}
	keyword := strings.ToUpper(rest[:end])
	rest = strings.TrimSpace(rest[end:])
	rest = trimDimensionMarker(rest)

	kind, multi := kindOf(keyword)
	if kind == shapeOther {
		return shape{kind: shapeOther}, nil
	}
	if strings.EqualFold(rest, "EMPTY") {
		return shape{kind: kind, multi: multi}, nil
	}

	node, pos, err := scanGroup(rest, 0)
	if err != nil {
		return shape{}, fmt.Errorf("malformed geometry text: %w", err)
	}
	if strings.TrimSpace(rest[pos:]) != "" {
		return shape{}, fmt.Errorf("malformed geometry text: trailing %q", strings.TrimSpace(rest[pos:]))
	}

	sh := shape{kind: kind, multi: multi}
	switch {
	case kind == shapeLine && !multi:
		sh.lines = [][]domain.Coordinate{node.coords}
	case kind == shapeLine && multi:
		for _, child := range node.children {
			sh.lines = append(sh.lines, child.coords)
		}
	case kind == shapePolygon && !multi:
		sh.polygons = [][][]domain.Coordinate{ringsOfNode(node)}
	case kind == shapePolygon && multi:
		for _, child := range node.children {
			sh.polygons = append(sh.polygons, ringsOfNode(child))
		}
	}
	return sh, nil
}

func kindOf(keyword string) (shapeKind, bool) {
	switch keyword {
	case "POINT":
		return shapePoint, false
	case "MULTIPOINT":
		return shapePoint, true
	case "LINESTRING":
		return shapeLine, false
	case "MULTILINESTRING":
		return shapeLine, true
	case "POLYGON":
		return shapePolygon, false
	case "MULTIPOLYGON":
		return shapePolygon, true
	}
	return shapeOther, false
}

func ringsOfNode(n wktNode) [][]domain.Coordinate {
	rings := make([][]domain.Coordinate, 0, len(n.children))
	for _, child := range n.children {
		rings = append(rings, child.coords)
	}
	return rings
}

// wktNode is one parenthesized group: either nested groups or a flat
// coordinate list.
type wktNode struct {
	children []wktNode
	coords   []domain.Coordinate
}

func scanGroup(s string, pos int) (wktNode, int, error) {
	pos = skipSpace(s, pos)
	if pos >= len(s) || s[pos] != '(' {
		return wktNode{}, pos, fmt.Errorf("expected '(' at offset %d", pos)
	}
	pos = skipSpace(s, pos+1)

	var node wktNode
	if pos < len(s) && s[pos] == '(' {
		for {
			child, next, err := scanGroup(s, pos)
			if err != nil {
				return wktNode{}, next, err
			}
			node.children = append(node.children, child)
			pos = skipSpace(s, next)
			if pos < len(s) && s[pos] == ',' {
				pos = skipSpace(s, pos+1)
				continue
			}
			break
		}
	} else {
		coords, next, err := scanCoords(s, pos)
		if err != nil {
			return wktNode{}, next, err
		}
		node.coords = coords
		pos = next
	}

	pos = skipSpace(s, pos)
	if pos >= len(s) || s[pos] != ')' {
		return wktNode{}, pos, fmt.Errorf("expected ')' at offset %d", pos)
	}
	return node, pos + 1, nil
}

func scanCoords(s string, pos int) ([]domain.Coordinate, int, error) {
	var coords []domain.Coordinate
	for {
		start := pos
		for pos < len(s) && s[pos] != ',' && s[pos] != ')' {
			pos++
		}
		fields := strings.Fields(s[start:pos])
		if len(fields) < 2 {
			return nil, pos, fmt.Errorf("coordinate tuple %q needs x and y", strings.TrimSpace(s[start:pos]))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, pos, fmt.Errorf("bad ordinate %q", fields[0])
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, pos, fmt.Errorf("bad ordinate %q", fields[1])
		}
		coords = append(coords, domain.Coordinate{X: x, Y: y})

		if pos < len(s) && s[pos] == ',' {
			pos = skipSpace(s, pos+1)
			continue
		}
		return coords, pos, nil
	}
}

func trimDimensionMarker(s string) string {
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "ZM "):
		return strings.TrimSpace(s[2:])
	case strings.HasPrefix(upper, "Z "), strings.HasPrefix(upper, "M "):
		return strings.TrimSpace(s[1:])
	case strings.HasPrefix(upper, "Z("), strings.HasPrefix(upper, "M("):
		return s[1:]
	case strings.HasPrefix(upper, "ZM("):
		return s[2:]
	}
	return s
}

func isWordByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r') {
		pos++
	}
	return pos
}
