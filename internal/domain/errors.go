package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
	ErrCanceled     = errors.New("run canceled")
)

// Specific errors.
var (
	ErrStoreNotFound      = fmt.Errorf("vector store: %w", ErrNotFound)
	ErrLayerNotFound      = fmt.Errorf("layer: %w", ErrNotFound)
	ErrRunNotFound        = fmt.Errorf("validation run: %w", ErrNotFound)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
)

// StoreError represents a failure opening or reading a vector store.
type StoreError struct {
	Operation string // Operation that failed (open, read, ...)
	Path      string // Store path
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store error during %s for %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// LayerError represents a failure while iterating a layer.
type LayerError struct {
	StoreID string // Store identifier
	Layer   string // Layer name
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	return fmt.Sprintf("layer error in store %s, layer %s: %v", e.StoreID, e.Layer, e.Err)
}

// Unwrap returns the underlying error.
func (e *LayerError) Unwrap() error {
	return e.Err
}

// DetectorError represents a failure inside one detector's run over a layer.
// A single malformed feature surfaces here rather than as a finding.
type DetectorError struct {
	Check CheckKind // Check that failed
	Layer string    // Layer name
	Err   error     // Underlying error
}

// Error implements the error interface.
func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s failed on layer %s: %v", e.Check, e.Layer, e.Err)
}

// Unwrap returns the underlying error.
func (e *DetectorError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during object storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, ...)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field or CSV location
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
