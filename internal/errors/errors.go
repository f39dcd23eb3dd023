// Package errors provides the error taxonomy shared by the wiki client and the query operations.
package errors

import (
	"errors"
	"fmt"
)

// ErrNoTitles is returned when a batched query is called without any subject title.
var ErrNoTitles = errors.New("no titles given")

// MissingPageError indicates the subject title does not exist on the remote wiki.
type MissingPageError struct {
	Title string
}

func (e *MissingPageError) Error() string {
	if e.Title == "" {
		return "page does not exist"
	}
	return fmt.Sprintf("page does not exist: %s", e.Title)
}

// NewMissingPageError creates a MissingPageError for title.
func NewMissingPageError(title string) *MissingPageError {
	return &MissingPageError{Title: title}
}

// BadTitleError indicates the remote service rejected a title as structurally invalid.
type BadTitleError struct {
	Title string
	Info  string // server-provided explanation, may be empty
}

func (e *BadTitleError) Error() string {
	if e.Info != "" {
		return fmt.Sprintf("bad title %q: %s", e.Title, e.Info)
	}
	return fmt.Sprintf("bad title %q", e.Title)
}

// ProtocolError signals that a reply broke an assumption about the remote protocol,
// e.g. more than one redirect record for a single-title query.
type ProtocolError struct {
	Op     string // operation that detected the violation
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Op, e.Detail)
}

// NewProtocolError creates a ProtocolError.
func NewProtocolError(op, format string, args ...any) *ProtocolError {
	return &ProtocolError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// DecodeError indicates the reply body could not be parsed as JSON on the final attempt.
type DecodeError struct {
	Attempts int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode reply after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is an `error` object returned by the MediaWiki API that has no dedicated type.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error [%s]: %s", e.Code, e.Info)
}

// StatusError is returned when the endpoint answers with a non-200 status after transport retries.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsMissingPage returns true if err is or wraps a MissingPageError.
func IsMissingPage(err error) bool {
	var target *MissingPageError
	return errors.As(err, &target)
}

// IsBadTitle returns true if err is or wraps a BadTitleError.
func IsBadTitle(err error) bool {
	var target *BadTitleError
	return errors.As(err, &target)
}

// IsProtocol returns true if err is or wraps a ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsDecode returns true if err is or wraps a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
