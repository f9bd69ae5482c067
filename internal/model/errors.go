package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION_ERROR"
	KindBrowserUnavail   ErrorKind = "BROWSER_UNAVAILABLE"
	KindFileFetch        ErrorKind = "FILE_FETCH_ERROR"
	KindRemoteValidation ErrorKind = "REMOTE_VALIDATION_ERROR"
	KindReferenceMissing ErrorKind = "REFERENCE_NOT_FOUND"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindSubmission       ErrorKind = "SUBMISSION_ERROR"
)

// HTTPStatus maps a kind to the status code returned to clients.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindBrowserUnavail:
		return http.StatusServiceUnavailable
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the same payload later.
func (k ErrorKind) Retryable() bool {
	return k == KindBrowserUnavail || k == KindTimeout
}

// SubmissionError is the error type carried out of every submission step.
type SubmissionError struct {
	Kind    ErrorKind
	Message string
	// Details holds scraped diagnostics, e.g. remote validation messages.
	Details []string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) HTTPStatus() int { return e.Kind.HTTPStatus() }

func (e *SubmissionError) Retryable() bool { return e.Kind.Retryable() }

// NewError builds a SubmissionError wrapping err (which may be nil).
func NewError(kind ErrorKind, msg string, err error) *SubmissionError {
	return &SubmissionError{Kind: kind, Message: msg, Err: err}
}

// AsSubmissionError maps any error onto the taxonomy. Deadline and
// cancellation errors become KindTimeout; anything unclassified becomes
// KindSubmission.
func AsSubmissionError(err error) *SubmissionError {
	if err == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindTimeout, "operation timed out", err)
	}
	return NewError(KindSubmission, err.Error(), err)
}
