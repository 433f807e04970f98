package domain

import "strconv"

// Feature represents one vector feature borrowed from the store for a single
// iteration step. Cursors copy everything out of the native row (id, WKT,
// validity flags, attributes) so nothing here references live store memory.
type Feature struct {
	ID         int64                  // Native row identifier (fid); -1 when absent
	LayerName  string                 // Owning layer
	Geometry   Geometry               // Copied geometry data
	Properties map[string]interface{} // Attribute data
}

// Ref returns the reviewer-facing feature identifier. The lookup order is
// contractual: native fid when non-negative, then a field literally named
// "FID", then "ID", else empty string. Downstream reviewers key off it.
func (f *Feature) Ref() string {
	if f.ID >= 0 {
		return strconv.FormatInt(f.ID, 10)
	}
	if v := f.stringProperty("FID"); v != "" {
		return v
	}
	return f.stringProperty("ID")
}

// GetProperty returns a property value by key.
func (f *Feature) GetProperty(key string) (interface{}, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

func (f *Feature) stringProperty(key string) string {
	v, ok := f.GetProperty(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// Geometry holds the copied-out geometry of a feature together with the
// store's native verdicts about it.
type Geometry struct {
	Type        string  // WKT type (POINT, POLYGON, ...)
	WKT         string  // Well-Known Text representation; empty when Null
	Null        bool    // Geometry reference missing in the store
	Empty       bool    // Present but empty
	NativeValid bool    // Store's native validity predicate
	Envelope    *Extent // Bounding box; nil when Null or Empty
}

// EnvelopeCenter returns the center of the geometry's bounding box, the
// representative point used for defect placement. Zero when no envelope.
func (g *Geometry) EnvelopeCenter() Coordinate {
	if g.Envelope == nil {
		return Coordinate{}
	}
	return g.Envelope.Center()
}

// IsPoint returns true if the geometry is a point.
func (g *Geometry) IsPoint() bool {
	return g.Type == "POINT" || g.Type == "MULTIPOINT" ||
		g.Type == "Point" || g.Type == "MultiPoint"
}

// IsLine returns true if the geometry belongs to the line family.
func (g *Geometry) IsLine() bool {
	return g.Type == "LINESTRING" || g.Type == "MULTILINESTRING" ||
		g.Type == "LineString" || g.Type == "MultiLineString"
}

// IsPolygon returns true if the geometry belongs to the polygon family.
func (g *Geometry) IsPolygon() bool {
	return g.Type == "POLYGON" || g.Type == "MULTIPOLYGON" ||
		g.Type == "Polygon" || g.Type == "MultiPolygon"
}

// GeometryType represents the type of a geometry.
type GeometryType string

// Geometry type constants.
const (
	GeomPoint           GeometryType = "POINT"
	GeomLineString      GeometryType = "LINESTRING"
	GeomPolygon         GeometryType = "POLYGON"
	GeomMultiPoint      GeometryType = "MULTIPOINT"
	GeomMultiLineString GeometryType = "MULTILINESTRING"
	GeomMultiPolygon    GeometryType = "MULTIPOLYGON"
)
