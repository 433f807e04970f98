package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncRunCount increments the validation run counter.
	IncRunCount(success bool)

	// ObserveLayerDuration records how long one layer's validation took.
	ObserveLayerDuration(layer string, duration time.Duration)

	// AddDefects adds to the defect counter for a layer and category.
	AddDefects(layer, defectType string, n int)

	// AddFeaturesProcessed adds to the processed-feature counter.
	AddFeaturesProcessed(layer string, n int64)

	// SetLayersValidated sets the layer count of the last run.
	SetLayersValidated(count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncRunCount implements MetricsCollector.
func (n *NoOpMetrics) IncRunCount(_ bool) {}

// ObserveLayerDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveLayerDuration(_ string, _ time.Duration) {}

// AddDefects implements MetricsCollector.
func (n *NoOpMetrics) AddDefects(_, _ string, _ int) {}

// AddFeaturesProcessed implements MetricsCollector.
func (n *NoOpMetrics) AddFeaturesProcessed(_ string, _ int64) {}

// SetLayersValidated implements MetricsCollector.
func (n *NoOpMetrics) SetLayersValidated(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
