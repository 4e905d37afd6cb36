package entity

import (
	"encoding/json"
	"time"
)

// Terminal poll states reported by the upstream service.
const (
	StatusSucceeded = "succeeded"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	APIURL  string                 `json:"apiUrl"`
	APIKey  string                 `json:"apiKey,omitempty"`
	Payload map[string]interface{} `json:"payload"`
}

// Submission is the upstream reply to a job submission. StatusURL is empty
// when the job finished synchronously and Raw is the final result.
type Submission struct {
	Raw       json.RawMessage
	StatusURL string
}

// StatusRecord is one poll reply after the data envelope has been removed.
type StatusRecord struct {
	Status string
	Error  string
	Record map[string]interface{}
}

func (r *StatusRecord) Succeeded() bool {
	return r.Status == StatusSucceeded || r.Status == StatusCompleted
}

func (r *StatusRecord) Failed() bool {
	return r.Status == StatusFailed
}

// Result is what the relay hands back to the transport layer: either the
// untouched submission body or the normalized final status record.
type Result struct {
	Raw      json.RawMessage
	Record   map[string]interface{}
	Attempts int
}

type JobOutcome string

const (
	OutcomeInstant   JobOutcome = "instant"
	OutcomeSucceeded JobOutcome = "succeeded"
	OutcomeFailed    JobOutcome = "failed"
	OutcomeTimeout   JobOutcome = "timeout"
	OutcomeRejected  JobOutcome = "rejected"
	OutcomeCanceled  JobOutcome = "canceled"
	OutcomeError     JobOutcome = "error"
)

// JobEvent is published once per job. It never carries payloads or outputs.
type JobEvent struct {
	JobID      string     `json:"job_id"`
	Endpoint   string     `json:"endpoint"`
	Outcome    JobOutcome `json:"outcome"`
	Attempts   int        `json:"attempts"`
	DurationMs int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
