// Package planar provides the GEOS-backed planar validity operator.
package planar

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/twpayne/go-geos"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// reasonLocation matches the offending coordinate GEOS appends to its
// diagnostic, e.g. "Self-intersection[551234.5 5921000.25]".
var reasonLocation = regexp.MustCompile(`\[([-+0-9.eE]+)[ ,]([-+0-9.eE]+)\]`)

// Validator implements the PlanarValidator port on top of GEOS. A GEOS
// context is not safe for concurrent use, so calls are serialized; detectors
// run sequentially anyway.
type Validator struct {
	mu  sync.Mutex
	ctx *geos.Context
}

// NewValidator creates a new GEOS-backed validator.
func NewValidator() *Validator {
	return &Validator{ctx: geos.NewContext()}
}

// ValidateWKT implements output.PlanarValidator. The geometry is parsed,
// tested, and destroyed within the call; nothing native escapes.
func (v *Validator) ValidateWKT(wkt string) (output.PlanarValidity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	g, err := v.ctx.NewGeomFromWKT(wkt)
	if err != nil {
		return output.PlanarValidity{}, fmt.Errorf("parsing WKT: %w", err)
	}
	defer g.Destroy()

	if g.IsValid() {
		return output.PlanarValidity{Valid: true}, nil
	}

	reason := g.IsValidReason()
	return output.PlanarValidity{
		Valid:    false,
		Reason:   reason,
		Location: parseLocation(reason),
	}, nil
}

// parseLocation extracts the offending coordinate from a GEOS diagnostic,
// when one is present.
func parseLocation(reason string) *domain.Coordinate {
	m := reasonLocation.FindStringSubmatch(reason)
	if m == nil {
		return nil
	}
	x, okX := parseFloat(m[1])
	y, okY := parseFloat(m[2])
	if !okX || !okY {
		return nil
	}
	return &domain.Coordinate{X: x, Y: y}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
