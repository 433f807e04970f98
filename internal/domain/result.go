package domain

import "time"

// DefectType tags one category of geometry defect.
type DefectType string

// Defect categories reported by the detectors.
const (
	DefectNull             DefectType = "null"
	DefectEmpty            DefectType = "empty"
	DefectInvalid          DefectType = "invalid"
	DefectDuplicate        DefectType = "duplicate"
	DefectOverlap          DefectType = "overlap"
	DefectSelfIntersection DefectType = "self_intersection"
	DefectSliver           DefectType = "sliver"
	DefectShortObject      DefectType = "short_object"
	DefectSmallArea        DefectType = "small_area"
	DefectPolygonInPolygon DefectType = "polygon_in_polygon"
	DefectMinPoints        DefectType = "min_points"
	DefectSpike            DefectType = "spike"
	DefectSelfOverlap      DefectType = "self_overlap"
	DefectUndershoot       DefectType = "undershoot"
	DefectOvershoot        DefectType = "overshoot"
)

// GeometryErrorDetail describes one individual defect. Created by a detector,
// immutable afterward, owned by the enclosing GeometryValidationItem.
type GeometryErrorDetail struct {
	FeatureRef string     `json:"feature_ref"` // Feature identifier per the fid/FID/ID policy
	Type       DefectType `json:"type"`        // Defect category
	Message    string     `json:"message"`     // Human-readable description
	Point      Coordinate `json:"point"`       // Representative point for map placement
	WKT        string     `json:"wkt"`         // Offending geometry or synthetic gap segment
}

// CheckStatus distinguishes how a check concluded for a layer. "Skipped"
// (disabled in configuration) and "not implemented" must stay distinguishable
// from "ran and found nothing".
type CheckStatus string

// Check statuses.
const (
	StatusSkipped        CheckStatus = "skipped"
	StatusRan            CheckStatus = "ran"
	StatusNotImplemented CheckStatus = "not_implemented"
	StatusFailed         CheckStatus = "failed"
)

// GeometryValidationItem aggregates the findings for one processed layer.
// Invariant: Counts[t] equals the number of Details records with Type t.
type GeometryValidationItem struct {
	Table             string                    `json:"table"`
	LayerName         string                    `json:"layer_name"`
	GeometryType      string                    `json:"geometry_type"`
	TotalFeatures     int64                     `json:"total_features"`
	ProcessedFeatures int64                     `json:"processed_features"`
	Counts            map[DefectType]int        `json:"counts"`
	Statuses          map[CheckKind]CheckStatus `json:"statuses"`
	Details           []GeometryErrorDetail     `json:"details"`
	RunError          string                    `json:"run_error,omitempty"` // Set when a detector failed on this layer
}

// NewValidationItem seeds an item with layer metadata. Every check starts out
// as skipped until the orchestrator dispatches it.
func NewValidationItem(table string, layer *Layer) *GeometryValidationItem {
	item := &GeometryValidationItem{
		Table:         table,
		LayerName:     layer.Name,
		GeometryType:  layer.GeometryType,
		TotalFeatures: layer.FeatureCount,
		Counts:        make(map[DefectType]int),
		Statuses:      make(map[CheckKind]CheckStatus, len(CheckOrder)),
	}
	for _, kind := range CheckOrder {
		item.Statuses[kind] = StatusSkipped
	}
	return item
}

// AddDetails merges detector findings into the item, keeping the per-category
// counts in lockstep with the detail list.
func (i *GeometryValidationItem) AddDetails(details []GeometryErrorDetail) {
	for _, d := range details {
		i.Counts[d.Type]++
		i.Details = append(i.Details, d)
	}
}

// SetStatus records how a check concluded.
func (i *GeometryValidationItem) SetStatus(kind CheckKind, status CheckStatus) {
	i.Statuses[kind] = status
}

// CountFor returns the number of defects of the given category.
func (i *GeometryValidationItem) CountFor(t DefectType) int {
	return i.Counts[t]
}

// DefectCount returns the total number of defects across all categories.
func (i *GeometryValidationItem) DefectCount() int {
	return len(i.Details)
}

// RunStatus represents the lifecycle state of a validation run.
type RunStatus string

// Run statuses.
const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunPartial  RunStatus = "partial" // Aborted; items hold what was accumulated
	RunCanceled RunStatus = "canceled"
)

// ValidationRun is the result of one pass over a vector store.
type ValidationRun struct {
	ID         string                    `json:"id"`
	StorePath  string                    `json:"store_path"`
	StoreID    string                    `json:"store_id"`
	Status     RunStatus                 `json:"status"`
	Items      []*GeometryValidationItem `json:"items"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Error      string                    `json:"error,omitempty"`
}

// DefectCount returns the total defects found across all layers.
func (r *ValidationRun) DefectCount() int {
	n := 0
	for _, item := range r.Items {
		n += item.DefectCount()
	}
	return n
}

// ItemFor returns the item for a layer name, if present.
func (r *ValidationRun) ItemFor(layerName string) (*GeometryValidationItem, bool) {
	for _, item := range r.Items {
		if item.LayerName == layerName {
			return item, true
		}
	}
	return nil, false
}

// ValidationRequest describes one validation run to execute.
type ValidationRequest struct {
	StorePath string        // Local path of the vector store to open
	Configs   []CheckConfig // Per-table check configuration, in dispatch order
	Criteria  Criteria      // Numeric tolerances, read-only for the run
}
