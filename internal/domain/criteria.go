package domain

// Criteria holds the numeric tolerances shared read-only across a validation
// run. Distances are expressed in the units of the layer's projected CRS.
type Criteria struct {
	DuplicateTolerance    float64 // Coordinate tolerance for duplicate detection
	OverlapTolerance      float64 // Distance tolerance for overlap detection
	SpikeAngleDegrees     float64 // Interior angles below this are spikes
	RingCloseTolerance    float64 // Max gap between a ring's first and last vertex
	NetworkSearchDistance float64 // Undershoot/overshoot search window
}

// DefaultCriteria returns the stock tolerances used when the configuration
// does not override them.
func DefaultCriteria() Criteria {
	return Criteria{
		DuplicateTolerance:    0.001,
		OverlapTolerance:      0.001,
		SpikeAngleDegrees:     15,
		RingCloseTolerance:    0.001,
		NetworkSearchDistance: 0.5,
	}
}
