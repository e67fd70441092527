package domain

// JobStatus tracks one queued transfer job through its lifecycle.
type JobStatus string

const (
	JobStatusWaiting  JobStatus = "waiting"
	JobStatusRunning  JobStatus = "running"
	JobStatusDone     JobStatus = "done"
	JobStatusCanceled JobStatus = "canceled"
	JobStatusFailed   JobStatus = "failed"
	JobStatusIgnored  JobStatus = "ignored"
	// JobStatusDeclined marks a job whose "start now?" question was answered with no.
	JobStatusDeclined JobStatus = "declined"
)

// Terminal reports whether the status ends a job.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusDone, JobStatusCanceled, JobStatusFailed, JobStatusIgnored, JobStatusDeclined:
		return true
	default:
		return false
	}
}

// JobKind identifies the operation a job performs against the target.
type JobKind string

const (
	JobKindStartKeyboardMode JobKind = "start-keyboard-mode"
	JobKindSendBinary        JobKind = "send-binary"
	JobKindRunBinary         JobKind = "run-binary"
	JobKindRunBinaryMenu     JobKind = "run-binary-menu"
	JobKindSendText          JobKind = "send-text"
	JobKindSendBasicText     JobKind = "send-basic-text"
	JobKindStartBasic        JobKind = "start-basic"
	JobKindStartRebasic      JobKind = "start-rebasic"
	JobKindRunBasic          JobKind = "run-basic"
	JobKindResetBascoder     JobKind = "reset-bascoder"
)

// SessionMode is the receive mode the target machine is believed to be in.
type SessionMode string

const (
	SessionModeUninitialized SessionMode = "uninitialized"
	SessionModeKeyboard      SessionMode = "keyboard"
	SessionModeBinary        SessionMode = "binary"
	SessionModeBroken        SessionMode = "broken"
)

// Outcome is the overall result of a drained queue.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeDone     Outcome = "done"
	OutcomeCanceled Outcome = "canceled"
	OutcomeFailed   Outcome = "failed"
)

// JobSnapshot is a consistent read of one job's progress.
type JobSnapshot struct {
	ID         string    `json:"id"`
	Kind       JobKind   `json:"kind"`
	Status     JobStatus `json:"status"`
	BytesSent  int       `json:"bytesSent"`
	BytesTotal int       `json:"bytesTotal"`
	Cancelable bool      `json:"cancelable"`
}

// QueueSnapshot aggregates the queue state for progress reporting.
type QueueSnapshot struct {
	QueueID    string        `json:"queueId"`
	Running    bool          `json:"running"`
	Outcome    Outcome       `json:"outcome,omitempty"`
	Mode       SessionMode   `json:"mode"`
	Jobs       []JobSnapshot `json:"jobs"`
	BytesSent  int           `json:"bytesSent"`
	BytesTotal int           `json:"bytesTotal"`
	Remaining  string        `json:"remaining,omitempty"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	SerialPort   string `json:"serialPort"`
	Turbo        bool   `json:"turbo"`
	HelperDir    string `json:"helperDir"`
	ConfirmReset bool   `json:"confirmReset"`
}
