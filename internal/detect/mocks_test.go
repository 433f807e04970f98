package detect

import (
	"context"
	"strings"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// sliceCursor serves features from memory and records how often the cursor
// was rewound.
type sliceCursor struct {
	features []*domain.Feature
	pos      int
	resets   int
	closed   bool
}

func newSliceCursor(features ...*domain.Feature) *sliceCursor {
	return &sliceCursor{features: features}
}

func (c *sliceCursor) ResetReading(ctx context.Context) error {
	c.pos = 0
	c.resets++
	return nil
}

func (c *sliceCursor) NextFeature(ctx context.Context) (*domain.Feature, error) {
	if c.pos >= len(c.features) {
		return nil, nil
	}
	f := c.features[c.pos]
	c.pos++
	return f, nil
}

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

// fakePlanar flags every WKT containing one of the given substrings as
// invalid.
type fakePlanar struct {
	invalidOn []string
	reason    string
	location  *domain.Coordinate
}

func (p *fakePlanar) ValidateWKT(wkt string) (output.PlanarValidity, error) {
	for _, s := range p.invalidOn {
		if strings.Contains(wkt, s) {
			return output.PlanarValidity{
				Valid:    false,
				Reason:   p.reason,
				Location: p.location,
			}, nil
		}
	}
	return output.PlanarValidity{Valid: true}, nil
}

func polygonFeature(id int64, wkt string) *domain.Feature {
	return &domain.Feature{
		ID:        id,
		LayerName: "parcels",
		Geometry: domain.Geometry{
			Type:        "POLYGON",
			WKT:         wkt,
			NativeValid: true,
			Envelope:    &domain.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		},
	}
}

func lineFeature(id int64, wkt string) *domain.Feature {
	return &domain.Feature{
		ID:        id,
		LayerName: "roads",
		Geometry: domain.Geometry{
			Type:        "LINESTRING",
			WKT:         wkt,
			NativeValid: true,
			Envelope:    &domain.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		},
	}
}
