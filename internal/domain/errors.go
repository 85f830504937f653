package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class across the whole run.
type ErrorCode string

const (
	// Input errors: fail fast, reported per offending item.
	CodeUnknownProduct      ErrorCode = "UNKNOWN_PRODUCT"
	CodeUnparsableTimestamp ErrorCode = "UNPARSABLE_TIMESTAMP"
	CodeInvalidRange        ErrorCode = "INVALID_RANGE"
	CodeIncompleteGeometry  ErrorCode = "INCOMPLETE_GEOMETRY"
	CodeIndexOutOfRange     ErrorCode = "INDEX_OUT_OF_RANGE"
	CodeInvalidBaseline     ErrorCode = "INVALID_BASELINE"

	// Catalogue errors: degrade gracefully, sibling queries proceed.
	CodeSearchFailed   ErrorCode = "SEARCH_FAILED"
	CodeMalformedEntry ErrorCode = "MALFORMED_ENTRY"
	CodeNoCollection   ErrorCode = "NO_COLLECTION"

	// Download errors: per record, non-fatal to the batch.
	CodeAllMirrorsFailed ErrorCode = "ALL_MIRRORS_FAILED"
	CodeSizeMismatch     ErrorCode = "SIZE_MISMATCH"
	CodeAuthRejected     ErrorCode = "AUTH_REJECTED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
)

// Error is the domain-specific error carrying a failure class and whether a
// retry could plausibly succeed.
type Error struct {
	Code      ErrorCode
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(code ErrorCode, message string, err error, retryable bool) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// CodeOf extracts the error code, or empty when err is not a domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether a retry could plausibly succeed. Non-domain
// errors are treated as retryable transport faults.
func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable
	}
	return err != nil
}

func ErrUnknownProduct(token string) *Error {
	return NewError(CodeUnknownProduct, fmt.Sprintf("unknown product name or shorthand %q", token), nil, false)
}

func ErrUnparsableTimestamp(value string) *Error {
	return NewError(CodeUnparsableTimestamp, fmt.Sprintf("timestamp %q matches no accepted format", value), nil, false)
}

func ErrInvalidRange(message string) *Error {
	return NewError(CodeInvalidRange, message, nil, false)
}

func ErrIncompleteGeometry(message string) *Error {
	return NewError(CodeIncompleteGeometry, message, nil, false)
}

func ErrIndexOutOfRange(index, count int) *Error {
	return NewError(CodeIndexOutOfRange, fmt.Sprintf("index %d is outside the 1..%d listing", index, count), nil, false)
}

func ErrInvalidBaseline(value string) *Error {
	return NewError(CodeInvalidBaseline, fmt.Sprintf("baseline %q is not a two-letter processor identifier", value), nil, false)
}
