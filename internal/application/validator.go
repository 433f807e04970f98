// Package application contains the application services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobrunner/geolint/internal/detect"
	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/input"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// ValidationService runs the configured geometry checks against a vector
// store. Detectors run strictly sequentially per layer because a layer
// exposes a single mutable read cursor.
type ValidationService struct {
	source    output.VectorSource
	planar    output.PlanarValidator
	proximity output.ProximityChecker
	metrics   output.MetricsCollector
	logger    *slog.Logger

	// failFast restores the legacy behavior of aborting the whole run on
	// the first layer failure instead of isolating it to that layer.
	failFast bool
}

// NewValidationService creates a new validation service.
func NewValidationService(
	source output.VectorSource,
	planar output.PlanarValidator,
	proximity output.ProximityChecker,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	failFast bool,
) *ValidationService {
	return &ValidationService{
		source:    source,
		planar:    planar,
		proximity: proximity,
		metrics:   metrics,
		logger:    logger,
		failFast:  failFast,
	}
}

// ValidateStore implements input.GeometryValidator. Store failures abort the
// run and return whatever was accumulated so far; the run status and error
// field carry the failure, not the returned error. Cancellation is the one
// distinguished error outcome, checked between layers.
func (s *ValidationService) ValidateStore(ctx context.Context, req domain.ValidationRequest, progress input.ProgressSink) (*domain.ValidationRun, error) {
	run := &domain.ValidationRun{
		ID:        newRunID(),
		StorePath: req.StorePath,
		Status:    domain.RunRunning,
		StartedAt: time.Now(),
	}

	s.logger.Info("starting validation run", "run", run.ID, "path", req.StorePath, "tables", len(req.Configs))
	s.report(progress, 0, "opening store")

	store, err := s.source.Open(ctx, req.StorePath)
	if err != nil {
		s.logger.Error("failed to open store", "path", req.StorePath, "error", err)
		s.finish(run, domain.RunPartial, err)
		return run, nil
	}
	run.StoreID = store.ID
	defer func() {
		if err := s.source.Close(context.WithoutCancel(ctx), store.ID); err != nil {
			s.logger.Warn("failed to close store", "id", store.ID, "error", err)
		}
	}()

	for i, cfg := range req.Configs {
		if err := ctx.Err(); err != nil {
			s.logger.Info("validation run canceled", "run", run.ID, "completed_layers", len(run.Items))
			s.finish(run, domain.RunCanceled, domain.ErrCanceled)
			return run, fmt.Errorf("%w: %v", domain.ErrCanceled, err)
		}

		layer, ok := store.GetLayer(cfg.Table)
		if !ok {
			s.logger.Debug("configured table not present in store, skipping", "table", cfg.Table)
			continue
		}

		item := domain.NewValidationItem(cfg.Table, layer)
		layerStart := time.Now()

		layerErr := s.validateLayer(ctx, store.ID, layer, cfg, req.Criteria, item)
		if layerErr != nil {
			item.RunError = layerErr.Error()
			s.logger.Error("layer validation failed", "run", run.ID, "layer", layer.Name, "error", layerErr)
		}

		run.Items = append(run.Items, item)
		s.recordLayerMetrics(layer.Name, item, time.Since(layerStart))
		s.report(progress, (i+1)*100/len(req.Configs),
			fmt.Sprintf("validated layer %s (%d defects)", layer.Name, item.DefectCount()))

		if layerErr != nil && s.failFast {
			s.logger.Warn("aborting run after layer failure", "run", run.ID, "layer", layer.Name)
			s.finish(run, domain.RunPartial, layerErr)
			return run, nil
		}
	}

	s.finish(run, domain.RunComplete, nil)
	s.logger.Info("validation run finished",
		"run", run.ID,
		"layers", len(run.Items),
		"defects", run.DefectCount(),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

// validateLayer dispatches the enabled checks for one layer in the fixed
// check order. A panic inside a detector is contained here so one broken
// layer cannot take down the rest of the run.
func (s *ValidationService) validateLayer(
	ctx context.Context,
	storeID string,
	layer *domain.Layer,
	cfg domain.CheckConfig,
	criteria domain.Criteria,
	item *domain.GeometryValidationItem,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.LayerError{StoreID: storeID, Layer: layer.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for _, kind := range domain.CheckOrder {
		if !cfg.Enabled(kind) {
			continue
		}

		outcome, checkErr := s.runCheck(ctx, storeID, layer.Name, kind, cfg, criteria)
		if checkErr != nil {
			item.SetStatus(kind, domain.StatusFailed)
			return &domain.DetectorError{Check: kind, Layer: layer.Name, Err: checkErr}
		}

		item.SetStatus(kind, outcome.Status)
		item.AddDetails(outcome.Details)
		if outcome.Processed > item.ProcessedFeatures {
			item.ProcessedFeatures = outcome.Processed
		}
	}
	return nil
}

// runCheck opens a fresh cursor for one detector and runs it. The cursor is
// owned by the detector for the duration and closed before the next check.
func (s *ValidationService) runCheck(
	ctx context.Context,
	storeID, layerName string,
	kind domain.CheckKind,
	cfg domain.CheckConfig,
	criteria domain.Criteria,
) (detect.Outcome, error) {
	cur, err := s.source.OpenLayer(ctx, storeID, layerName)
	if err != nil {
		return detect.Outcome{}, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil {
			s.logger.Warn("failed to close layer cursor", "layer", layerName, "error", cerr)
		}
	}()

	switch kind {
	case domain.CheckBasic:
		return detect.BasicValidity(ctx, cur)
	case domain.CheckDuplicate:
		details, err := s.proximity.CheckDuplicates(ctx, cur, criteria.DuplicateTolerance)
		if err != nil {
			return detect.Outcome{}, err
		}
		return detect.Ran(details, 0), nil
	case domain.CheckOverlap:
		details, err := s.proximity.CheckOverlaps(ctx, cur, criteria.OverlapTolerance)
		if err != nil {
			return detect.Outcome{}, err
		}
		return detect.Ran(details, 0), nil
	case domain.CheckSelfIntersection:
		return detect.SelfIntersection(ctx, cur, s.planar)
	case domain.CheckSliver:
		return detect.Sliver(ctx, cur)
	case domain.CheckShortObject:
		return detect.ShortObject(ctx, cur)
	case domain.CheckSmallArea:
		return detect.SmallArea(ctx, cur)
	case domain.CheckPolygonInPolygon:
		return detect.PolygonInPolygon(ctx, cur)
	case domain.CheckMinPoints:
		return detect.MinPoints(ctx, cur, criteria.RingCloseTolerance)
	case domain.CheckSpike:
		return detect.Spikes(ctx, cur, criteria.SpikeAngleDegrees)
	case domain.CheckSelfOverlap:
		return detect.SelfOverlap(ctx, cur, s.planar)
	case domain.CheckNetwork:
		return detect.Network(ctx, cur, criteria.NetworkSearchDistance, cfg.Undershoot, cfg.Overshoot)
	}
	return detect.Outcome{}, fmt.Errorf("unknown check kind %q", kind)
}

// finish stamps the run's terminal state and records run-level metrics.
func (s *ValidationService) finish(run *domain.ValidationRun, status domain.RunStatus, err error) {
	run.Status = status
	run.FinishedAt = time.Now()
	if err != nil {
		run.Error = err.Error()
	}
	s.metrics.SetLayersValidated(len(run.Items))
	s.metrics.IncRunCount(status == domain.RunComplete)
}

func (s *ValidationService) recordLayerMetrics(layer string, item *domain.GeometryValidationItem, elapsed time.Duration) {
	s.metrics.ObserveLayerDuration(layer, elapsed)
	s.metrics.AddFeaturesProcessed(layer, item.ProcessedFeatures)
	for defectType, count := range item.Counts {
		s.metrics.AddDefects(layer, string(defectType), count)
	}
}

func (s *ValidationService) report(progress input.ProgressSink, percent int, message string) {
	if progress != nil {
		progress.Progress(percent, message)
	}
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
