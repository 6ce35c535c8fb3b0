package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending        JobStatus = "pending"
	JobStatusProcessing     JobStatus = "processing"
	JobStatusPartialSuccess JobStatus = "partial_success"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur from s.
// partial_success is terminal: the insight stage is never retried.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartialSuccess:
		return true
	}
	return false
}

func (s JobStatus) canTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		switch next {
		case JobStatusProcessing, JobStatusCompleted, JobStatusPartialSuccess, JobStatusFailed:
			return true
		}
	}
	return false
}

// Machine-usable error codes surfaced alongside the human-readable Error text.
const (
	ErrCodeTranscriptUnavailable = "transcript_unavailable"
	ErrCodeTranscriptFetch       = "transcript_fetch_error"
	ErrCodeInsightsAPI           = "insights_api_error"
	ErrCodeInsightsEmpty         = "insights_empty"
	ErrCodeInternal              = "internal_error"
)

// processingEstimate is the advisory end-to-end duration used to recompute
// EstimatedCompletionTime at each transition.
const processingEstimate = 45 * time.Second

// Job is the status record for one transcript+insights request. It is
// serialized as-is into the status store and broadcast to subscribers.
type Job struct {
	RequestID               string    `json:"request_id"`
	VideoID                 string    `json:"video_id"`
	Model                   string    `json:"model"`
	Status                  JobStatus `json:"status"`
	Progress                float64   `json:"progress"`
	Message                 string    `json:"message"`
	Error                   string    `json:"error,omitempty"`
	ErrorCode               string    `json:"error_code,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
	EstimatedCompletionTime time.Time `json:"estimated_completion_time"`
}

func NewJob(videoID, model string) *Job {
	now := time.Now().UTC()
	return &Job{
		RequestID:               uuid.NewString(),
		VideoID:                 videoID,
		Model:                   model,
		Status:                  JobStatusPending,
		Progress:                0,
		Message:                 "Request accepted, waiting to start",
		CreatedAt:               now,
		UpdatedAt:               now,
		EstimatedCompletionTime: now.Add(processingEstimate),
	}
}

// MarkProcessing advances the job to processing (or records an intermediate
// processing update). Progress must not move backward.
func (j *Job) MarkProcessing(progress float64, message string) error {
	if err := j.transition(JobStatusProcessing); err != nil {
		return err
	}
	if progress < j.Progress {
		return fmt.Errorf("progress must not decrease: %.2f -> %.2f", j.Progress, progress)
	}
	j.Progress = progress
	j.Message = message
	j.touch()
	return nil
}

func (j *Job) MarkCompleted() error {
	if err := j.transition(JobStatusCompleted); err != nil {
		return err
	}
	j.Progress = 1.0
	j.Message = "Transcript and insights ready"
	j.touch()
	return nil
}

// MarkPartialSuccess records that the transcript was obtained but the insight
// stage failed. Progress keeps its last-known value.
func (j *Job) MarkPartialSuccess(code, errMsg string) error {
	if err := j.transition(JobStatusPartialSuccess); err != nil {
		return err
	}
	j.Message = "Transcript ready, insight generation failed"
	j.Error = errMsg
	j.ErrorCode = code
	j.touch()
	return nil
}

// MarkFailed records an unrecoverable failure. Progress keeps its last-known
// value.
func (j *Job) MarkFailed(code, errMsg string) error {
	if err := j.transition(JobStatusFailed); err != nil {
		return err
	}
	j.Message = "Processing failed"
	j.Error = errMsg
	j.ErrorCode = code
	j.touch()
	return nil
}

func (j *Job) transition(next JobStatus) error {
	if !j.Status.canTransitionTo(next) {
		return fmt.Errorf("invalid transition: %s -> %s", j.Status, next)
	}
	j.Status = next
	return nil
}

func (j *Job) touch() {
	now := time.Now().UTC()
	j.UpdatedAt = now
	if j.Status.Terminal() {
		j.EstimatedCompletionTime = now
		return
	}
	remaining := time.Duration((1.0 - j.Progress) * float64(processingEstimate))
	j.EstimatedCompletionTime = now.Add(remaining)
}
