package model

import "time"

// JobState is the lifecycle state of a training job.
type JobState string

// Training job states.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// TrainingJob asks for the model to be re-fitted from stored history.
type TrainingJob struct {
	ID          string    `json:"id"`
	RequestedAt time.Time `json:"requested_at"`
	Reason      string    `json:"reason,omitempty"`
}

// JobStatus reports the progress of a training job.
type JobStatus struct {
	Job        TrainingJob `json:"job"`
	State      JobState    `json:"state"`
	ModelID    string      `json:"model_id,omitempty"`
	Error      string      `json:"error,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}
