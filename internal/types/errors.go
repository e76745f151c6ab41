package types

import (
	"errors"
	"fmt"
)

// ErrImportInProgress is returned when an import for the same broker is
// already running. Imports are single-flight per broker.
var ErrImportInProgress = errors.New("an import for this broker is already in progress")

// ValidationError marks a malformed Trade field. Trades failing validation
// are rejected before they reach the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ParseError marks an import payload with no recognizable order table.
// An input that parses but yields no closed round trips is not an error;
// the matcher signals that by returning zero trades.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "tradebook parse failed: " + e.Reason
}

// NewParseError builds a ParseError with the given reason.
func NewParseError(reason string) *ParseError {
	return &ParseError{Reason: reason}
}
