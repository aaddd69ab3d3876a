// Package suggest implements the asynchronous diary-suggestion pipeline.
// A submitted job aggregates the day's events, captions their photos,
// composes a narrative paragraph, and persists the result as a diary.
// Jobs live in Redis: a hash per job for state, a list for the work queue.
package suggest

import (
	"time"
)

// Job statuses. A job starts PENDING and moves to exactly one terminal
// status; there are no other transitions.
const (
	StatusPending   = "PENDING"
	StatusSuccess   = "SUCCESS"
	StatusFailure   = "FAILURE"
	StatusCancelled = "CANCELLED"
)

// terminal reports whether a status permits no further transitions.
func terminal(status string) bool {
	return status == StatusSuccess || status == StatusFailure || status == StatusCancelled
}

// Job is one diary-suggestion request.
type Job struct {
	ID       string  `json:"id"`
	UserID   int64   `json:"user_id"`
	Date     string  `json:"date"` // "YYYY-MM-DD"
	EventIDs []int64 `json:"event_ids"`
	Status   string  `json:"status"`

	// DiaryID is set only when Status is SUCCESS.
	DiaryID string `json:"diary_id,omitempty"`

	// Error is set only when Status is FAILURE.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitRequest holds the data submitted when requesting a suggestion.
// An event id of -1 is a client-side placeholder and is dropped before
// validation.
type SubmitRequest struct {
	Date     string  `json:"date"`
	EventIDs []int64 `json:"event_ids"`
}

// SubmitResponse is returned immediately after a job is queued.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse is the poll result. DiaryID and Error are mutually
// exclusive and only present in terminal states.
type StatusResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	DiaryID string `json:"diary_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
