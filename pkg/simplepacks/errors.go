package simplepacks

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds
var (
	// ErrValidation indicates the request is missing required metadata or assets
	ErrValidation = errors.New("validation failed")

	// ErrUpload indicates an object storage operation failed
	ErrUpload = errors.New("upload failed")

	// ErrPersistence indicates a database operation failed
	ErrPersistence = errors.New("persistence failed")
)

// Wire names of the error kinds, used by the HTTP layer.
const (
	KindValidation  = "validation_error"
	KindUpload      = "upload_error"
	KindPersistence = "persistence_error"
	KindInternal    = "internal_error"
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("invalid request: %s", e.Msg)
	}
	return fmt.Sprintf("invalid request: missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UploadError represents a failed object storage operation
type UploadError struct {
	Key string
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

// PersistenceError represents a failed database operation
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("database operation %s failed on table %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Kind maps an error to its wire kind.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUpload):
		return KindUpload
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindInternal
	}
}
