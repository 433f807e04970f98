// Package geopackage provides the SpatiaLite-based vector layer source.
package geopackage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// Ensure sqlite3 driver is registered with extension support.
func init() {
	sql.Register("sqlite3_with_extensions", &sqlite3.SQLiteDriver{
		Extensions: getSpatiaLiteLibraryPaths(),
	})
}

// getSpatiaLiteLibraryPaths returns a list of paths to try for loading SpatiaLite.
// The order is important: environment variable first, then platform-specific paths.
func getSpatiaLiteLibraryPaths() []string {
	var paths []string

	// First, check environment variable (set by Nix shell or Docker)
	// The env var should point to the exact library path
	if envPath := os.Getenv("SPATIALITE_LIBRARY_PATH"); envPath != "" {
		paths = append(paths, envPath)
		return paths
	}

	// Fallback: Platform-specific paths
	// Order matters - more specific paths first, then generic names
	paths = append(paths,
		// Alpine Linux (Docker containers)
		"/usr/lib/mod_spatialite.so",
		"/usr/lib/mod_spatialite.so.8",

		// Debian/Ubuntu amd64
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",

		// Debian/Ubuntu arm64
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",

		// macOS Homebrew (Intel)
		"/usr/local/lib/mod_spatialite.dylib",

		// macOS Homebrew (Apple Silicon)
		"/opt/homebrew/lib/mod_spatialite.dylib",

		// Generic names (let the system find them via LD_LIBRARY_PATH)
		"mod_spatialite.so",    // Linux
		"mod_spatialite",       // System default
		"mod_spatialite.dylib", // macOS
	)

	return paths
}

// Repository implements the VectorSource port using SpatiaLite. The store's
// native validity predicate (ST_IsValid) and emptiness test (ST_IsEmpty) are
// evaluated in SQL while reading, so every feature arrives with its native
// verdicts and envelope already copied out.
type Repository struct {
	mu          sync.RWMutex
	connections map[string]*sql.DB
	stores      map[string]*domain.Store
}

// NewRepository creates a new vector store repository.
func NewRepository() *Repository {
	return &Repository{
		connections: make(map[string]*sql.DB),
		stores:      make(map[string]*domain.Store),
	}
}

// Open opens a vector store file and returns its metadata.
func (r *Repository) Open(ctx context.Context, path string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	storeID := DeriveStoreID(path)

	// Check if already open
	if store, ok := r.stores[storeID]; ok {
		return store, nil
	}

	db, err := r.openDB(ctx, path)
	if err != nil {
		return nil, &domain.StoreError{Operation: "open", Path: path, Err: err}
	}

	if err := r.checkSpatiaLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, &domain.StoreError{Operation: "open", Path: path, Err: err}
	}

	store, err := r.readStoreMetadata(ctx, db, storeID, path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	r.connections[storeID] = db
	r.stores[storeID] = store

	return store, nil
}

// Close closes an open store.
func (r *Repository) Close(_ context.Context, storeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, ok := r.connections[storeID]
	if !ok {
		return nil
	}

	if err := db.Close(); err != nil {
		return err
	}

	delete(r.connections, storeID)
	delete(r.stores, storeID)
	return nil
}

// CloseAll closes every open store. Used on shutdown.
func (r *Repository) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, db := range r.connections {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.connections, id)
		delete(r.stores, id)
	}
	return firstErr
}

// Layers returns all feature layers of an open store.
func (r *Repository) Layers(_ context.Context, storeID string) ([]domain.Layer, error) {
	r.mu.RLock()
	store, ok := r.stores[storeID]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrStoreNotFound
	}

	return store.Layers, nil
}

// OpenLayer returns a read cursor over a layer's features. The caller owns
// the cursor exclusively until Close.
func (r *Repository) OpenLayer(_ context.Context, storeID, layerName string) (output.FeatureCursor, error) {
	r.mu.RLock()
	db, ok := r.connections[storeID]
	store := r.stores[storeID]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrStoreNotFound
	}

	layer, found := store.GetLayer(layerName)
	if !found {
		return nil, domain.ErrLayerNotFound
	}

	return &featureCursor{
		db:         db,
		storeID:    storeID,
		layerName:  layer.Name,
		geomColumn: layer.GeometryColumn,
	}, nil
}

// openDB opens the SQLite database with appropriate settings.
func (r *Repository) openDB(ctx context.Context, path string) (*sql.DB, error) {
	// Read-only is enough: validation never writes to the store
	dsn := fmt.Sprintf("file:%s?mode=ro&cache=shared", path)
	db, err := sql.Open("sqlite3_with_extensions", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// checkSpatiaLite verifies that the SpatiaLite extension is loaded.
// The extension is loaded automatically by the sqlite3_with_extensions driver.
func (r *Repository) checkSpatiaLite(ctx context.Context, db *sql.DB) error {
	var version string
	err := db.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("SpatiaLite extension not available: %w", err)
	}
	return nil
}

// readStoreMetadata reads store-level metadata and the layer list.
func (r *Repository) readStoreMetadata(ctx context.Context, db *sql.DB, storeID, path string) (*domain.Store, error) {
	store := &domain.Store{
		ID:       storeID,
		Name:     storeID,
		Path:     path,
		OpenedAt: time.Now(),
	}

	if info, err := os.Stat(path); err == nil {
		store.Size = info.Size()
	}

	layers, err := r.readLayers(ctx, db)
	if err != nil {
		return nil, &domain.StoreError{Operation: "read", Path: path, Err: err}
	}
	store.Layers = layers

	return store, nil
}

// readLayers reads layer information from gpkg_contents.
func (r *Repository) readLayers(ctx context.Context, db *sql.DB) ([]domain.Layer, error) {
	query := `
		SELECT
			c.table_name,
			COALESCE(c.description, ''),
			g.column_name,
			g.geometry_type_name,
			g.srs_id,
			COALESCE(c.min_x, 0), COALESCE(c.min_y, 0),
			COALESCE(c.max_x, 0), COALESCE(c.max_y, 0)
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
		WHERE c.data_type = 'features'
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading layers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var layers []domain.Layer
	for rows.Next() {
		var l domain.Layer
		var minX, minY, maxX, maxY float64

		err := rows.Scan(
			&l.Name, &l.Description, &l.GeometryColumn,
			&l.GeometryType, &l.SRID,
			&minX, &minY, &maxX, &maxY,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning layer: %w", err)
		}

		if minX != 0 || minY != 0 || maxX != 0 || maxY != 0 {
			l.Extent = &domain.Extent{
				MinX: minX, MinY: minY,
				MaxX: maxX, MaxY: maxY,
			}
		}

		// Count features
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM \"%s\"", l.Name) //#nosec G201 -- table name from trusted database source
		var count int64
		if err := db.QueryRowContext(ctx, countQuery).Scan(&count); err == nil {
			l.FeatureCount = count
		}

		layers = append(layers, l)
	}

	return layers, rows.Err()
}

// DeriveStoreID derives a store ID from the file path.
// It extracts the filename without extension as the store identifier.
func DeriveStoreID(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// extractGeometryType extracts the geometry type from WKT.
func extractGeometryType(wkt string) string {
	if idx := strings.IndexAny(wkt, "( "); idx > 0 {
		return strings.ToUpper(strings.TrimSpace(wkt[:idx]))
	}
	return strings.ToUpper(strings.TrimSpace(wkt))
}
