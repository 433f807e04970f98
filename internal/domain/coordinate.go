// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a planar coordinate. All distance and angle math in
// this engine assumes a projected (Euclidean) coordinate reference system;
// feeding geographic coordinates produces meaningless distances.
type Coordinate struct {
	X float64 // Easting
	Y float64 // Northing
}

// NewCoordinate creates a coordinate.
func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// DistanceTo returns the planar distance to another coordinate.
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	return math.Hypot(c.X-o.X, c.Y-o.Y)
}

// SquaredDistanceTo returns the squared planar distance to another coordinate.
// Used for tolerance comparisons without the sqrt.
func (c Coordinate) SquaredDistanceTo(o Coordinate) float64 {
	dx := c.X - o.X
	dy := c.Y - o.Y
	return dx*dx + dy*dy
}

// WKT returns the Well-Known Text representation.
func (c Coordinate) WKT() string {
	return fmt.Sprintf("POINT (%g %g)", c.X, c.Y)
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%g %g)", c.X, c.Y)
}

// Extent represents a spatial bounding box.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// IsValid checks if the extent has valid dimensions.
func (e Extent) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Width returns the width of the extent.
func (e Extent) Width() float64 {
	return math.Abs(e.MaxX - e.MinX)
}

// Height returns the height of the extent.
func (e Extent) Height() float64 {
	return math.Abs(e.MaxY - e.MinY)
}

// Center returns the center coordinate of the extent. Detectors use this as
// the representative point of a defective geometry for map placement.
func (e Extent) Center() Coordinate {
	return Coordinate{
		X: (e.MinX + e.MaxX) / 2,
		Y: (e.MinY + e.MaxY) / 2,
	}
}

// Contains checks if a coordinate is within the extent.
func (e Extent) Contains(c Coordinate) bool {
	return c.X >= e.MinX && c.X <= e.MaxX && c.Y >= e.MinY && c.Y <= e.MaxY
}
