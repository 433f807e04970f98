package output

import "github.com/jobrunner/geolint/internal/domain"

// PlanarValidity is the verdict of the planar geometry library on one
// geometry. It is a topological second opinion, distinct from the store's
// native validity predicate; the two catch different defect classes.
type PlanarValidity struct {
	Valid    bool
	Reason   string             // Operator diagnostic, empty when valid
	Location *domain.Coordinate // Offending coordinate, when the operator reports one
}

// PlanarValidator defines the secondary port for topological validity checks.
type PlanarValidator interface {
	// ValidateWKT parses a WKT geometry and tests its planar validity.
	// A parse failure is an error, not an invalid verdict.
	ValidateWKT(wkt string) (PlanarValidity, error)
}
