package model

import "strings"

// SubmissionResult is the response body for a submission. Exactly one of the
// success or failure field groups is populated.
type SubmissionResult struct {
	Success bool `json:"success"`

	// ReferenceNumber is set on success only.
	ReferenceNumber string `json:"reference_number,omitempty"`

	// ErrorKind and Message are set on failure only.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Details   []string  `json:"details,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`

	SubmissionID string `json:"submission_id,omitempty"`
	// Warnings are advisory notes such as defaulted identity fields.
	Warnings []string `json:"warnings,omitempty"`
}

func NewSuccess(id, reference string) *SubmissionResult {
	return &SubmissionResult{Success: true, ReferenceNumber: reference, SubmissionID: id}
}

// NewFailure converts err through AsSubmissionError.
func NewFailure(id string, err error) *SubmissionResult {
	se := AsSubmissionError(err)
	if se == nil {
		se = NewError(KindSubmission, "unknown failure", nil)
	}
	msg := se.Message
	if msg == "" {
		msg = strings.ToLower(string(se.Kind))
	}
	return &SubmissionResult{
		Success:      false,
		ErrorKind:    se.Kind,
		Message:      msg,
		Details:      se.Details,
		Retryable:    se.Retryable(),
		SubmissionID: id,
	}
}

// HTTPStatus returns the status code for this result.
func (r *SubmissionResult) HTTPStatus() int {
	if r.Success {
		return 200
	}
	return r.ErrorKind.HTTPStatus()
}
