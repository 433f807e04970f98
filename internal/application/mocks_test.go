package application

import (
	"context"
	"io"
	"strings"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// mockSource implements output.VectorSource for testing.
type mockSource struct {
	store    *domain.Store
	features map[string][]*domain.Feature // layer name -> features
	panicOn  map[string]int               // layer name -> NextFeature call that panics
	openErr  error
	layerErr error

	closedStores  []string
	cursorsOpened int
	cursorsClosed int
}

func (m *mockSource) Open(_ context.Context, path string) (*domain.Store, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	if m.store != nil {
		return m.store, nil
	}
	return &domain.Store{ID: path, Name: path, Path: path}, nil
}

func (m *mockSource) Close(_ context.Context, storeID string) error {
	m.closedStores = append(m.closedStores, storeID)
	return nil
}

func (m *mockSource) Layers(_ context.Context, _ string) ([]domain.Layer, error) {
	if m.store == nil {
		return nil, domain.ErrStoreNotFound
	}
	return m.store.Layers, nil
}

func (m *mockSource) OpenLayer(_ context.Context, _, layerName string) (output.FeatureCursor, error) {
	if m.layerErr != nil {
		return nil, m.layerErr
	}
	m.cursorsOpened++
	return &mockCursor{source: m, features: m.features[layerName], panicAt: m.panicOn[layerName]}, nil
}

// mockCursor serves features from memory. panicAt triggers a panic on the
// n-th NextFeature call to exercise layer isolation.
type mockCursor struct {
	source   *mockSource
	features []*domain.Feature
	pos      int
	panicAt  int
}

func (c *mockCursor) ResetReading(_ context.Context) error {
	c.pos = 0
	return nil
}

func (c *mockCursor) NextFeature(_ context.Context) (*domain.Feature, error) {
	if c.panicAt > 0 && c.pos+1 == c.panicAt {
		panic("corrupt feature blob")
	}
	if c.pos >= len(c.features) {
		return nil, nil
	}
	f := c.features[c.pos]
	c.pos++
	return f, nil
}

func (c *mockCursor) Close() error {
	if c.source != nil {
		c.source.cursorsClosed++
	}
	return nil
}

// mockPlanar implements output.PlanarValidator for testing.
type mockPlanar struct {
	invalidOn string // substring of WKT that makes a geometry invalid
	reason    string
}

func (p *mockPlanar) ValidateWKT(wkt string) (output.PlanarValidity, error) {
	if p.invalidOn != "" && strings.Contains(wkt, p.invalidOn) {
		return output.PlanarValidity{Valid: false, Reason: p.reason}, nil
	}
	return output.PlanarValidity{Valid: true}, nil
}

// mockProximity implements output.ProximityChecker for testing.
type mockProximity struct {
	duplicates []domain.GeometryErrorDetail
	overlaps   []domain.GeometryErrorDetail
	err        error

	duplicateCalls int
	overlapCalls   int
}

func (m *mockProximity) CheckDuplicates(_ context.Context, _ output.FeatureCursor, _ float64) ([]domain.GeometryErrorDetail, error) {
	m.duplicateCalls++
	return m.duplicates, m.err
}

func (m *mockProximity) CheckOverlaps(_ context.Context, _ output.FeatureCursor, _ float64) ([]domain.GeometryErrorDetail, error) {
	m.overlapCalls++
	return m.overlaps, m.err
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	objects     []output.StorageObject
	downloadErr error
	listErr     error

	downloaded []string
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, key, _ string) error {
	if m.downloadErr != nil {
		return m.downloadErr
	}
	m.downloaded = append(m.downloaded, key)
	return nil
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *mockStorage) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}
