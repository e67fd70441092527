package jobs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"kc-transfer/internal/domain"
)

// Job is one queued operation against the target.
type Job struct {
	ID               string
	Kind             domain.JobKind
	Descriptor       domain.TransferDescriptor
	PostPause        time.Duration
	ConfirmBeforeRun bool
	SaveResumeLine   bool
	RebaudTo         int
	BasicLineOffset  int

	mu         sync.Mutex
	status     domain.JobStatus
	sent       int
	total      int
	cancelable bool
	cancel     atomic.Bool
}

// JobOption adjusts optional job parameters.
type JobOption func(*Job)

// WithPostPause waits after a successful job.
func WithPostPause(d time.Duration) JobOption {
	return func(j *Job) { j.PostPause = d }
}

// WithConfirm asks the user before the job counts as done.
func WithConfirm() JobOption {
	return func(j *Job) { j.ConfirmBeforeRun = true }
}

// WithSaveResumeLine remembers the last typed BASICODE line.
func WithSaveResumeLine() JobOption {
	return func(j *Job) { j.SaveResumeLine = true }
}

// WithRebaud reopens the port at baud after a successful job.
func WithRebaud(baud int) JobOption {
	return func(j *Job) { j.RebaudTo = baud }
}

// WithLineOffset slows keystroke pacing as if offset lines had been typed.
func WithLineOffset(offset int) JobOption {
	return func(j *Job) { j.BasicLineOffset = offset }
}

// NewJob creates a waiting job. The payload length of desc is the job total.
func NewJob(kind domain.JobKind, desc domain.TransferDescriptor, opts ...JobOption) *Job {
	j := &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Descriptor: desc,
		status:     domain.JobStatusWaiting,
		total:      len(desc.Payload),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Cancel asks the job to stop at the next transfer unit.
func (j *Job) Cancel() {
	j.cancel.Store(true)
}

// Snapshot returns a consistent read of status and progress.
func (j *Job) Snapshot() domain.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return domain.JobSnapshot{
		ID:         j.ID,
		Kind:       j.Kind,
		Status:     j.status,
		BytesSent:  j.sent,
		BytesTotal: j.total,
		Cancelable: j.cancelable,
	}
}

func (j *Job) canceled() bool {
	return j.cancel.Load()
}

// setStatus applies a transition and reports whether it was allowed.
func (j *Job) setStatus(status domain.JobStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if status == j.status {
		return true
	}
	if !isValidTransition(j.status, status) {
		return false
	}
	j.status = status
	return true
}

func (j *Job) setSent(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sent = n
}

func (j *Job) setCancelable(v bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelable = v
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusWaiting:
		return to == domain.JobStatusRunning || to == domain.JobStatusIgnored
	case domain.JobStatusRunning:
		return to.Terminal()
	default:
		return false
	}
}
