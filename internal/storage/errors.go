package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrorType distinguishes between database failures and rejected input.
type ErrorType int

const (
	// ErrorTypeInfrastructure indicates DB/system errors.
	ErrorTypeInfrastructure ErrorType = iota
	// ErrorTypeInvalidData indicates a record that cannot be stored as given.
	ErrorTypeInvalidData
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInfrastructure:
		return "infrastructure"
	case ErrorTypeInvalidData:
		return "invalid data"
	default:
		return "unknown"
	}
}

// StorageError wraps storage layer errors with type information.
type StorageError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewInfrastructureError creates an infrastructure error.
func NewInfrastructureError(message string, cause error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeInfrastructure,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidDataError creates an invalid data error.
func NewInvalidDataError(message string) *StorageError {
	return &StorageError{
		Type:    ErrorTypeInvalidData,
		Message: message,
	}
}

// IsInvalidData reports whether err is a StorageError of type invalid data.
func IsInvalidData(err error) bool {
	var serr *StorageError
	return errors.As(err, &serr) && serr.Type == ErrorTypeInvalidData
}

// StoreResult contains the outcome of a batch insert.
type StoreResult struct {
	Accepted int      // Rows written
	Skipped  int      // Rows already present
	Rejected int      // Rows that failed validation
	Errors   []string // Human-readable messages for rejected rows
}

// AddError records a rejected row with its error message.
func (r *StoreResult) AddError(msg string) {
	r.Rejected++
	r.Errors = append(r.Errors, msg)
}

// HasRejections returns true if any rows were rejected.
func (r *StoreResult) HasRejections() bool {
	return r.Rejected > 0
}

// ErrorMessage returns a combined error message for rejected rows.
func (r *StoreResult) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return fmt.Sprintf("%d errors: %s", len(r.Errors), r.Errors[0])
}
