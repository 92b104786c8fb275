package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while answering a query.
var (
	// ErrEmptyQuery indicates that the query was empty or contained only
	// whitespace. It is reported before any candidate source is consulted.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoRelevantResults indicates that ranking produced no results.
	// Callers should tell the user instead of printing an empty list.
	ErrNoRelevantResults = errors.New("no relevant results")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// QueryError records which orchestration stage rejected or failed a query.
type QueryError struct {
	// Stage is the orchestration state in which the error occurred.
	Stage string

	// Query is the raw query text as supplied by the caller.
	Query string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for QueryError.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: stage=%s, query=%q, err=%v", e.Stage, e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError creates a new QueryError with the given details.
func NewQueryError(stage, query string, err error) *QueryError {
	return &QueryError{
		Stage: stage,
		Query: query,
		Err:   err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match any validation failure against ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
