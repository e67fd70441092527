package jobs

import (
	"errors"
	"fmt"

	"kc-transfer/internal/domain"
)

// ErrQueueRunning is returned when the queue is changed or started while jobs run.
var ErrQueueRunning = errors.New("queue already running")

// ErrQueueEmpty is returned when starting without queued jobs.
var ErrQueueEmpty = errors.New("queue is empty")

// ErrNoRunningQueue is returned when cancel is requested while idle.
var ErrNoRunningQueue = errors.New("no running queue")

// ErrNotKeyboardMode is returned for live keys while the target is not typing.
var ErrNotKeyboardMode = errors.New("target is not in keyboard mode")

// JobError is a stage-aware failure inside one job.
type JobError struct {
	Kind    domain.JobKind `json:"kind"`
	Stage   string         `json:"stage"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
}

// Error formats job failures for logs and UI.
func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s/%s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Stage, e.Message, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *JobError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrNothingToSend is returned when planning a rejected descriptor.
var ErrNothingToSend = errors.New("nothing to send")

// ErrHelperMissing is returned when a recipe needs a helper image that is not loaded.
var ErrHelperMissing = errors.New("helper image missing")
