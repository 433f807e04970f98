package domain

// CheckKind identifies one toggleable geometry check.
type CheckKind string

// The full battery of checks, in dispatch order.
const (
	CheckBasic            CheckKind = "basic"
	CheckDuplicate        CheckKind = "duplicate"
	CheckOverlap          CheckKind = "overlap"
	CheckSelfIntersection CheckKind = "self_intersection"
	CheckSliver           CheckKind = "sliver"
	CheckShortObject      CheckKind = "short_object"
	CheckSmallArea        CheckKind = "small_area"
	CheckPolygonInPolygon CheckKind = "polygon_in_polygon"
	CheckMinPoints        CheckKind = "min_points"
	CheckSpike            CheckKind = "spike"
	CheckSelfOverlap      CheckKind = "self_overlap"
	CheckNetwork          CheckKind = "network" // undershoot/overshoot connectivity
)

// CheckOrder is the fixed order in which enabled checks run against a layer.
// Basic validity always runs first; the order is part of the result contract
// because a detector failure truncates everything after it in fail-fast mode.
var CheckOrder = []CheckKind{
	CheckBasic,
	CheckDuplicate,
	CheckOverlap,
	CheckSelfIntersection,
	CheckSliver,
	CheckShortObject,
	CheckSmallArea,
	CheckPolygonInPolygon,
	CheckMinPoints,
	CheckSpike,
	CheckSelfOverlap,
	CheckNetwork,
}

// CheckConfig enables individual checks for one configured table. A table
// absent from configuration is skipped entirely: not validated, not flagged.
type CheckConfig struct {
	Table        string // Table/layer identifier matched against open layers
	GeometryType string // Expected geometry type
	SRID         int    // Expected spatial reference

	Duplicate        bool
	Overlap          bool
	SelfIntersection bool
	Sliver           bool
	ShortObject      bool
	SmallArea        bool
	PolygonInPolygon bool
	MinPoints        bool
	Spike            bool
	SelfOverlap      bool
	Undershoot       bool
	Overshoot        bool
}

// Enabled reports whether the given check kind is switched on for this table.
// Basic validity is unconditional; the network check runs when either of its
// two defect classes is wanted.
func (c *CheckConfig) Enabled(kind CheckKind) bool {
	switch kind {
	case CheckBasic:
		return true
	case CheckDuplicate:
		return c.Duplicate
	case CheckOverlap:
		return c.Overlap
	case CheckSelfIntersection:
		return c.SelfIntersection
	case CheckSliver:
		return c.Sliver
	case CheckShortObject:
		return c.ShortObject
	case CheckSmallArea:
		return c.SmallArea
	case CheckPolygonInPolygon:
		return c.PolygonInPolygon
	case CheckMinPoints:
		return c.MinPoints
	case CheckSpike:
		return c.Spike
	case CheckSelfOverlap:
		return c.SelfOverlap
	case CheckNetwork:
		return c.Undershoot || c.Overshoot
	}
	return false
}
