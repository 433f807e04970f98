package domain

import "time"

// Store represents an opened vector store (GeoPackage file).
type Store struct {
	ID       string    // Unique identifier (derived from filename)
	Name     string    // Display name
	Path     string    // File path
	Size     int64     // File size in bytes
	Layers   []Layer   // Feature layers
	OpenedAt time.Time // Open timestamp
}

// LayerCount returns the number of feature layers.
func (s *Store) LayerCount() int {
	return len(s.Layers)
}

// GetLayer returns a layer by name.
func (s *Store) GetLayer(name string) (*Layer, bool) {
	for i := range s.Layers {
		if s.Layers[i].Name == name {
			return &s.Layers[i], true
		}
	}
	return nil, false
}

// Layer represents a feature layer within a vector store.
type Layer struct {
	Name           string  // Layer name from gpkg_contents.table_name
	Description    string  // Layer description
	GeometryColumn string  // Name of the geometry column
	GeometryType   string  // Geometry type (POINT, POLYGON, ...)
	SRID           int     // Spatial reference ID; expected to be projected
	FeatureCount   int64   // Number of features
	Extent         *Extent // Bounding box (optional)
}

// IsPointLayer returns true if the layer contains point geometries.
func (l *Layer) IsPointLayer() bool {
	return l.GeometryType == "POINT" || l.GeometryType == "MULTIPOINT"
}

// IsLineLayer returns true if the layer contains line geometries.
func (l *Layer) IsLineLayer() bool {
	return l.GeometryType == "LINESTRING" || l.GeometryType == "MULTILINESTRING"
}

// IsPolygonLayer returns true if the layer contains polygon geometries.
func (l *Layer) IsPolygonLayer() bool {
	return l.GeometryType == "POLYGON" || l.GeometryType == "MULTIPOLYGON"
}
