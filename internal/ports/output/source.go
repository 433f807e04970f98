// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/jobrunner/geolint/internal/domain"
)

// VectorSource defines the secondary port for vector store access.
type VectorSource interface {
	// Open opens a vector store file and returns its metadata.
	Open(ctx context.Context, path string) (*domain.Store, error)

	// Close closes an open store.
	Close(ctx context.Context, storeID string) error

	// Layers returns all feature layers of an open store.
	Layers(ctx context.Context, storeID string) ([]domain.Layer, error)

	// OpenLayer returns a read cursor over a layer's features. Layers expose
	// a single mutable cursor; callers own it exclusively until Close and
	// must never interleave two cursors over the same layer.
	OpenLayer(ctx context.Context, storeID, layerName string) (FeatureCursor, error)
}

// FeatureCursor iterates the features of one layer. Each feature is copied
// out of the store; no reference outlives the iteration step that produced it.
type FeatureCursor interface {
	// ResetReading rewinds the cursor to the first feature.
	ResetReading(ctx context.Context) error

	// NextFeature returns the next feature, or (nil, nil) at the end.
	NextFeature(ctx context.Context) (*domain.Feature, error)

	// Close releases the cursor.
	Close() error
}
