package model

import (
	"errors"
	"strings"
)

// ErrNotReady is returned when a request targets a view that the current
// project status does not allow.
var ErrNotReady = errors.New("project is not ready")

// ValidationCode classifies a local validation failure.
type ValidationCode string

const (
	CodeMissingParameter       ValidationCode = "missing_parameter"
	CodeMalformedRelationQuery ValidationCode = "malformed_relation_query"
	CodeInvalidValue           ValidationCode = "invalid_value"
	CodeInvalidArchive         ValidationCode = "invalid_archive"
)

// ValidationError holds a list of field-level validation errors. It is
// produced locally and never involves the analysis service.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Code    ValidationCode
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field string, code ValidationCode, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Message: msg})
}

// Has reports whether any field error carries the given code.
func (e *ValidationError) Has(code ValidationCode) bool {
	for _, fe := range e.Errors {
		if fe.Code == code {
			return true
		}
	}
	return false
}

// OrNil returns e when it holds errors and nil otherwise, so callers can
// accumulate into a value and return it directly.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsValidation reports whether err is a *ValidationError carrying code.
func IsValidation(err error, code ValidationCode) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Has(code)
}
