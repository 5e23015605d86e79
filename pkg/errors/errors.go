// Package errors provides custom error types for the fieldmatch system.
// Fatal conditions (an unreachable or malformed taxonomy source) and
// recoverable ones (a field without candidates, an unknown scenario) each
// have a sentinel so callers can branch with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Aliases so callers need only this package.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the fieldmatch system
var (
	// ErrFetch indicates the canonical taxonomy could not be retrieved
	ErrFetch = errors.New("taxonomy fetch failed")

	// ErrDecode indicates the taxonomy payload did not have the expected shape
	ErrDecode = errors.New("taxonomy decode failed")

	// ErrEmptyCandidateSet indicates a value was matched against an empty list
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrNoCandidates indicates inference had nothing to match against
	ErrNoCandidates = errors.New("no candidates")

	// ErrUnknownScenario indicates a scenario id outside the catalogue
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// FetchError represents a failure to retrieve the taxonomy payload.
type FetchError struct {
	Source     string // URL or path of the taxonomy source
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NewFetchError creates a new FetchError
func NewFetchError(source, message string, err error) *FetchError {
	return &FetchError{Source: source, Message: message, Err: err}
}

// DecodeError represents a payload that was delivered but could not be
// parsed into a mapping of field names to value lists.
type DecodeError struct {
	Format  string // "json", "yaml", "toml"
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s decode error in %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s decode error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(format, source, message string, err error) *DecodeError {
	return &DecodeError{Format: format, Source: source, Message: message, Err: err}
}

// CandidateError reports that a match could not be attempted because the
// candidate list (or the whole taxonomy) was empty.
type CandidateError struct {
	Field string
	Value string
	// Empty is set when a single candidate list was empty, as opposed to
	// the taxonomy as a whole offering nothing to match against.
	Empty bool
}

// Error implements the error interface
func (e *CandidateError) Error() string {
	switch {
	case e.Empty && e.Field != "":
		return fmt.Sprintf("field %s has no candidate values for %q", e.Field, e.Value)
	case e.Empty:
		return fmt.Sprintf("no candidate values for %q", e.Value)
	case e.Field != "":
		return fmt.Sprintf("no candidates to infer field %s with value %q", e.Field, e.Value)
	default:
		return fmt.Sprintf("no candidates for value %q", e.Value)
	}
}

// Is implements errors.Is support. An empty list is both an empty candidate
// set and, from the caller's point of view, a lack of candidates.
func (e *CandidateError) Is(target error) bool {
	if target == ErrNoCandidates {
		return true
	}
	return e.Empty && target == ErrEmptyCandidateSet
}

// UnknownScenarioError represents a lookup of a scenario id outside the catalogue
type UnknownScenarioError struct {
	ID    int
	Count int
}

// Error implements the error interface
func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("scenario %d is not defined (catalogue has %d)", e.ID, e.Count)
}

// Is implements errors.Is support
func (e *UnknownScenarioError) Is(target error) bool {
	return target == ErrUnknownScenario || target == ErrNotFound
}

// NewUnknownScenarioError creates a new UnknownScenarioError
func NewUnknownScenarioError(id, count int) *UnknownScenarioError {
	return &UnknownScenarioError{ID: id, Count: count}
}

// NotFoundError represents a lookup of a stored resource that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// Helper functions for error checking

// IsFetch checks if an error is a taxonomy fetch failure
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsDecode checks if an error is a taxonomy decode failure
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsNoCandidates checks if an error means there was nothing to match against
func IsNoCandidates(err error) bool {
	return errors.Is(err, ErrNoCandidates)
}

// IsUnknownScenario checks if an error is an unknown scenario lookup
func IsUnknownScenario(err error) bool {
	return errors.Is(err, ErrUnknownScenario)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapDecode wraps an error as a DecodeError
func WrapDecode(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewDecodeError(format, source, err.Error(), err)
}

// WrapFetch wraps an error as a FetchError
func WrapFetch(source string, err error) error {
	if err == nil {
		return nil
	}
	return NewFetchError(source, "", err)
}
