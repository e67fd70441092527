package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"kc-transfer/internal/domain"
	"kc-transfer/internal/timing"
)

// Transport is the byte channel to the target machine.
type Transport interface {
	Open(device string, baud int) error
	Write(p []byte) error
	Flush() error
	Close() error
	// Interrupt aborts in-flight writes on a best-effort basis. It may be
	// called from another goroutine while Write blocks.
	Interrupt()
}

// UI receives the engine's synchronous call-outs. Both methods block the
// worker until the user has answered.
type UI interface {
	Confirm(question string) bool
	NotifyError(message string)
}

// Config holds the engine tunables.
type Config struct {
	Device      string
	Baud        int
	ChunkSize   int
	Timing      domain.Timing
	IdleTimeout time.Duration
	JobTimeout  time.Duration
}

// DefaultConfig returns the settings used for a KC85/4 on the M003 module.
func DefaultConfig() Config {
	return Config{
		Baud:        1200,
		ChunkSize:   64,
		Timing:      domain.DefaultTiming(),
		IdleTimeout: 10 * time.Second,
		JobTimeout:  10 * time.Second,
	}
}

// Engine runs a queue of jobs one at a time against a Transport.
type Engine struct {
	transport Transport
	ui        UI
	session   *Session
	analyzer  *timing.Analyzer
	logger    *zap.Logger
	events    *EventBus
	sleep     func(time.Duration)
	now       func() time.Time

	cfg Config

	mu          sync.Mutex
	keyMu       sync.Mutex
	portOpen    bool
	sendingKeys bool
	queueID     string
	jobs        []*Job
	current     int
	running     bool
	finished    bool
	outcome     domain.Outcome
	done        chan struct{}
	startedAt   time.Time
	watch       watchState
	remaining   []int

	stop atomic.Bool
}

// NewEngine creates an engine with real clocks.
func NewEngine(transport Transport, ui UI, cfg Config, logger *zap.Logger, events *EventBus) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NewEventBus(500)
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 1200
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 64
	}

	return &Engine{
		transport: transport,
		ui:        ui,
		session:   NewSession(),
		analyzer:  timing.NewAnalyzer(cfg.Timing.DimDefaultBound, cfg.Timing.DimOptionBase, cfg.Timing.MaxVariableLetters),
		logger:    logger,
		events:    events,
		sleep:     time.Sleep,
		now:       time.Now,
		cfg:       cfg,
		current:   -1,
	}
}

// NewEngineForTests creates an engine with injected clocks.
func NewEngineForTests(transport Transport, ui UI, cfg Config, sleep func(time.Duration), now func() time.Time) *Engine {
	e := NewEngine(transport, ui, cfg, nil, nil)
	e.sleep = sleep
	e.now = now
	return e
}

// Session exposes the target session for read access.
func (e *Engine) Session() *Session {
	return e.session
}

// Events returns the bus the engine publishes to.
func (e *Engine) Events() *EventBus {
	return e.events
}

// SetDevice switches the serial device. The port is reopened on the next start.
func (e *Engine) SetDevice(device string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrQueueRunning
	}
	if device == e.cfg.Device {
		return nil
	}
	e.cfg.Device = device
	if e.portOpen {
		e.portOpen = false
		if err := e.transport.Close(); err != nil {
			return fmt.Errorf("close port: %w", err)
		}
	}
	return nil
}

// ResetSession forgets the target state after the user reset the hardware.
func (e *Engine) ResetSession() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrQueueRunning
	}
	e.session.setMode(domain.SessionModeUninitialized)
	e.session.setLastLine("")
	return nil
}

// Enqueue appends jobs to the queue. A drained queue is cleared first.
func (e *Engine) Enqueue(jobs ...*Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrQueueRunning
	}
	if e.finished {
		e.jobs = nil
		e.finished = false
		e.outcome = domain.OutcomeNone
	}
	e.jobs = append(e.jobs, jobs...)
	return nil
}

// Start opens the port when needed and runs the queue on a worker goroutine.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running || e.sendingKeys {
		e.mu.Unlock()
		return ErrQueueRunning
	}
	if len(e.jobs) == 0 || e.finished {
		e.mu.Unlock()
		return ErrQueueEmpty
	}
	e.running = true
	needOpen := !e.portOpen
	device, baud := e.cfg.Device, e.cfg.Baud
	e.mu.Unlock()

	if needOpen {
		if err := e.transport.Open(device, baud); err != nil {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			return fmt.Errorf("open %s: %w", device, err)
		}
	}

	e.mu.Lock()
	e.portOpen = true
	e.queueID = uuid.NewString()
	e.current = -1
	e.outcome = domain.OutcomeNone
	e.done = make(chan struct{})
	e.startedAt = e.now()
	e.watch = watchState{}
	e.remaining = e.remaining[:0]
	e.stop.Store(false)
	jobs := append([]*Job(nil), e.jobs...)
	done := e.done
	queueID := e.queueID
	e.mu.Unlock()

	e.logger.Info("queue started", zap.String("queue_id", queueID), zap.Int("jobs", len(jobs)))
	e.events.Publish(Event{QueueID: queueID, Type: EventTypeStatus, Message: "queue started", BytesTotal: totalBytes(jobs)})

	go e.run(queueID, jobs, e.session, done)
	return nil
}

// CancelAll stops the running job at its next transfer unit and skips the rest.
func (e *Engine) CancelAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return ErrNoRunningQueue
	}
	e.stop.Store(true)
	if e.current >= 0 && e.current < len(e.jobs) {
		e.jobs[e.current].Cancel()
	}
	return nil
}

// Outcome returns the queue result, or OutcomeNone while running.
func (e *Engine) Outcome() domain.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome
}

// Running reports whether the worker is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Wait blocks until the current queue drains or ctx ends.
func (e *Engine) Wait(ctx context.Context) (domain.Outcome, error) {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return domain.OutcomeNone, ErrNoRunningQueue
	}
	select {
	case <-done:
		return e.Outcome(), nil
	case <-ctx.Done():
		return domain.OutcomeNone, ctx.Err()
	}
}

// Snapshot aggregates the queue for progress reporting.
func (e *Engine) Snapshot() domain.QueueSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() domain.QueueSnapshot {
	jobs := lo.Map(e.jobs, func(j *Job, _ int) domain.JobSnapshot { return j.Snapshot() })
	return domain.QueueSnapshot{
		QueueID:    e.queueID,
		Running:    e.running,
		Outcome:    e.outcome,
		Mode:       e.session.Mode(),
		Jobs:       jobs,
		BytesSent:  lo.SumBy(jobs, func(s domain.JobSnapshot) int { return s.BytesSent }),
		BytesTotal: lo.SumBy(jobs, func(s domain.JobSnapshot) int { return s.BytesTotal }),
	}
}

// SendKeys forwards live keystrokes while no queue runs and the target types.
// The write happens outside the engine lock so a stalled port does not block
// progress reporting.
func (e *Engine) SendKeys(p []byte) error {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrQueueRunning
	}
	if !e.portOpen || e.session.Mode() != domain.SessionModeKeyboard {
		e.mu.Unlock()
		return ErrNotKeyboardMode
	}
	e.sendingKeys = true
	link := e.transport
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.sendingKeys = false
		e.mu.Unlock()
	}()

	if err := link.Write(p); err != nil {
		e.session.setMode(domain.SessionModeBroken)
		e.logger.Warn("keystroke write failed", zap.Error(err))
		return fmt.Errorf("write keys: %w", err)
	}
	return link.Flush()
}

// Close releases the port. It fails while a queue runs.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.sendingKeys {
		return ErrQueueRunning
	}
	if !e.portOpen {
		return nil
	}
	e.portOpen = false
	return e.transport.Close()
}

func (e *Engine) run(queueID string, jobs []*Job, s *Session, done chan struct{}) {
	defer close(done)

	anyFailed := false
	for i, job := range jobs {
		if e.stop.Load() {
			break
		}
		e.mu.Lock()
		e.current = i
		e.mu.Unlock()

		status := e.execute(queueID, job, s)
		if status == domain.JobStatusFailed || status == domain.JobStatusIgnored {
			anyFailed = true
		}
		if status != domain.JobStatusDone {
			break
		}
	}

	outcome := domain.OutcomeDone
	switch {
	case e.stop.Load():
		outcome = domain.OutcomeCanceled
	case anyFailed:
		outcome = domain.OutcomeFailed
	}

	e.mu.Lock()
	e.current = -1
	e.running = false
	e.finished = true
	e.outcome = outcome
	e.mu.Unlock()

	e.logger.Info("queue finished", zap.String("queue_id", queueID), zap.String("outcome", string(outcome)))
	e.events.Publish(Event{QueueID: queueID, Type: EventTypeResult, Outcome: outcome, Mode: s.Mode()})
}

// execute runs one job to a terminal status against the session s.
func (e *Engine) execute(queueID string, job *Job, s *Session) domain.JobStatus {
	if s.Mode() == domain.SessionModeBroken {
		job.setStatus(domain.JobStatusIgnored)
		e.publishJob(queueID, job, s, EventTypeStatus, "target connection is broken")
		return domain.JobStatusIgnored
	}

	job.setStatus(domain.JobStatusRunning)
	e.logger.Debug("job started", zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)))
	e.publishJob(queueID, job, s, EventTypeStatus, "")

	status, err := e.handle(job, s)
	if err != nil {
		status = domain.JobStatusFailed
		e.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
		e.publishJob(queueID, job, s, EventTypeError, err.Error())
	}

	if status == domain.JobStatusDone && job.RebaudTo > 0 {
		if err := e.rebaud(job.RebaudTo); err != nil {
			status = domain.JobStatusFailed
			s.setMode(domain.SessionModeBroken)
			e.logger.Error("rebaud failed", zap.Int("baud", job.RebaudTo), zap.Error(err))
			e.publishJob(queueID, job, s, EventTypeError, err.Error())
		}
	}
	if status == domain.JobStatusDone && job.ConfirmBeforeRun && e.ui != nil {
		if !e.ui.Confirm("Start program now?") {
			status = domain.JobStatusDeclined
		}
	}
	if status == domain.JobStatusDone && job.PostPause > 0 {
		e.sleep(job.PostPause)
	}

	job.setCancelable(false)
	job.setStatus(status)
	e.logger.Debug("job finished", zap.String("job_id", job.ID), zap.String("status", string(status)))
	e.publishJob(queueID, job, s, EventTypeStatus, "")
	return status
}

// handle dispatches to the handler of the job kind.
func (e *Engine) handle(job *Job, s *Session) (domain.JobStatus, error) {
	switch job.Kind {
	case domain.JobKindStartKeyboardMode:
		return e.startKeyboardMode(job, s)
	case domain.JobKindSendBinary:
		return e.sendBinary(job, s)
	case domain.JobKindRunBinary:
		return e.runBinary(job, s)
	case domain.JobKindRunBinaryMenu:
		return e.runBinaryMenu(job, s)
	case domain.JobKindSendText:
		return e.typeText(job, s, false, false)
	case domain.JobKindSendBasicText:
		return e.typeText(job, s, true, true)
	case domain.JobKindStartBasic:
		return e.startBasic(job, s)
	case domain.JobKindStartRebasic:
		return e.startRebasic(job, s)
	case domain.JobKindRunBasic:
		return e.runBasic(job, s)
	case domain.JobKindResetBascoder:
		return e.resetBascoder(job, s)
	default:
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "dispatch", Message: "unknown job kind"}
	}
}

// rebaud reopens the port at a new rate after the target switched.
func (e *Engine) rebaud(baud int) error {
	if err := e.transport.Flush(); err != nil {
		return fmt.Errorf("flush before rebaud: %w", err)
	}
	if err := e.transport.Close(); err != nil {
		return fmt.Errorf("close before rebaud: %w", err)
	}

	e.mu.Lock()
	device := e.cfg.Device
	e.portOpen = false
	e.mu.Unlock()

	if err := e.transport.Open(device, baud); err != nil {
		return fmt.Errorf("reopen at %d baud: %w", baud, err)
	}

	e.mu.Lock()
	e.portOpen = true
	e.mu.Unlock()
	return nil
}

func (e *Engine) publishJob(queueID string, job *Job, s *Session, typ EventType, message string) {
	snap := job.Snapshot()
	e.events.Publish(Event{
		QueueID:    queueID,
		JobID:      snap.ID,
		Type:       typ,
		Kind:       snap.Kind,
		Status:     snap.Status,
		Mode:       s.Mode(),
		BytesSent:  snap.BytesSent,
		BytesTotal: snap.BytesTotal,
		Message:    message,
	})
}

func totalBytes(jobs []*Job) int {
	return lo.SumBy(jobs, func(j *Job) int { return j.total })
}
