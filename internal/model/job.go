package model

import "time"

// JobStatus follows Idle → Filling → Submitting → terminal.
type JobStatus string

const (
	JobIdle       JobStatus = "idle"
	JobFilling    JobStatus = "filling"
	JobSubmitting JobStatus = "submitting"
	JobSucceeded  JobStatus = "success"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions follow.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventStep   JobEventType = "step"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	// Step names the form section being worked on.
	Step   string            `json:"step,omitempty"`
	Result *SubmissionResult `json:"result,omitempty"`
	At     time.Time         `json:"at"`
}

// Job tracks one submission, sync or async.
type Job struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	Result    *SubmissionResult `json:"result,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at,omitempty"`
	Events    chan JobEvent     `json:"-"`
}
