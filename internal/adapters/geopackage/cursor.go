package geopackage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jobrunner/geolint/internal/domain"
)

// computedColumns is the number of trailing columns the cursor query appends
// after the table's own columns: null flag, emptiness, native validity, WKT
// export, and the four envelope bounds.
const computedColumns = 8

// featureCursor implements output.FeatureCursor over one layer's table.
// GeoPackage stores geometries in GPKG binary format; CastAutomagic converts
// them so the SpatiaLite functions apply. The native verdicts and WKT are
// computed in SQL as the feature is read, so nothing native outlives the row.
type featureCursor struct {
	db         *sql.DB
	storeID    string
	layerName  string
	geomColumn string

	rows    *sql.Rows
	columns []string
}

// ResetReading rewinds the cursor by re-running the feature query.
func (c *featureCursor) ResetReading(ctx context.Context) error {
	if c.rows != nil {
		if err := c.rows.Close(); err != nil {
			return c.layerErr(err)
		}
		c.rows = nil
	}

	query := fmt.Sprintf(`
		SELECT t.*,
			t."%[1]s" IS NULL,
			ST_IsEmpty(CastAutomagic(t."%[1]s")),
			ST_IsValid(CastAutomagic(t."%[1]s")),
			AsText(CastAutomagic(t."%[1]s")),
			MbrMinX(CastAutomagic(t."%[1]s")),
			MbrMinY(CastAutomagic(t."%[1]s")),
			MbrMaxX(CastAutomagic(t."%[1]s")),
			MbrMaxY(CastAutomagic(t."%[1]s"))
		FROM "%[2]s" t
		ORDER BY t.fid
	`, c.geomColumn, c.layerName) //#nosec G201 -- table/column names from trusted database

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return c.layerErr(err)
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return c.layerErr(err)
	}
	if len(columns) < computedColumns {
		_ = rows.Close()
		return c.layerErr(fmt.Errorf("unexpected column count %d", len(columns)))
	}

	c.rows = rows
	c.columns = columns
	return nil
}

// NextFeature returns the next feature, or (nil, nil) at the end. Every
// field is copied out of the row; the returned feature holds no database
// state.
func (c *featureCursor) NextFeature(_ context.Context) (*domain.Feature, error) {
	if c.rows == nil {
		return nil, c.layerErr(fmt.Errorf("cursor not reset"))
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, c.layerErr(err)
		}
		return nil, nil
	}

	values := make([]interface{}, len(c.columns))
	valuePtrs := make([]interface{}, len(c.columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := c.rows.Scan(valuePtrs...); err != nil {
		return nil, c.layerErr(err)
	}

	return c.buildFeature(values), nil
}

// Close releases the cursor.
func (c *featureCursor) Close() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

// buildFeature assembles a domain feature from a scanned row. The table's
// own columns come first, the computed tail last.
func (c *featureCursor) buildFeature(values []interface{}) *domain.Feature {
	feature := &domain.Feature{
		ID:         -1,
		LayerName:  c.layerName,
		Properties: make(map[string]interface{}),
	}

	tail := len(values) - computedColumns
	for i := 0; i < tail; i++ {
		col := c.columns[i]
		switch {
		case col == "fid":
			if v, ok := values[i].(int64); ok {
				feature.ID = v
			}
		case col == c.geomColumn:
			// Raw geometry blob stays in the database
		case values[i] != nil:
			feature.Properties[col] = values[i]
		}
	}

	feature.Geometry.Null = intValue(values[tail]) != 0
	if feature.Geometry.Null {
		return feature
	}

	feature.Geometry.Empty = intValue(values[tail+1]) != 0
	feature.Geometry.NativeValid = intValue(values[tail+2]) != 0
	if wkt, ok := values[tail+3].(string); ok {
		feature.Geometry.WKT = wkt
		feature.Geometry.Type = extractGeometryType(wkt)
	}

	if !feature.Geometry.Empty {
		minX, okMinX := floatValue(values[tail+4])
		minY, okMinY := floatValue(values[tail+5])
		maxX, okMaxX := floatValue(values[tail+6])
		maxY, okMaxY := floatValue(values[tail+7])
		if okMinX && okMinY && okMaxX && okMaxY {
			feature.Geometry.Envelope = &domain.Extent{
				MinX: minX, MinY: minY,
				MaxX: maxX, MaxY: maxY,
			}
		}
	}

	return feature
}

func (c *featureCursor) layerErr(err error) error {
	return &domain.LayerError{StoreID: c.storeID, Layer: c.layerName, Err: err}
}

// intValue coerces a scanned SQLite value to an int64. NULL maps to zero.
func intValue(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	case float64:
		return int64(n)
	}
	return 0
}

// floatValue coerces a scanned SQLite value to a float64.
func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}
