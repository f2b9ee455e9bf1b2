package model

import (
	"errors"
	"fmt"
)

// Pipeline-level sentinel errors
var (
	ErrNoExtractor        = errors.New("extraction adapter not configured")
	ErrEmptyDocument      = errors.New("empty document")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrTooManyPages       = errors.New("document has too many pages")
	ErrNotInvoiceDocument = errors.New("no invoice record in extractor response")
)

// RecordError reports a malformed invoice record. Path is the JSON path of
// the offending field, e.g. "line_items[1].amount".
type RecordError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed invoice record at %s: %s (%v)", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed invoice record at %s: %s", e.Path, e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// NewRecordError creates a new record error
func NewRecordError(path, message string, cause error) *RecordError {
	return &RecordError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError is a non-fatal finding attached to a compiled voucher
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
	Message string      `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// ExtractionError represents extraction failures
type ExtractionError struct {
	Method  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed [%s]: %s (%v)", e.Method, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed [%s]: %s", e.Method, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError creates a new extraction error
func NewExtractionError(method, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Method:  method,
		Message: message,
		Cause:   cause,
	}
}
