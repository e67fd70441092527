package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"kc-transfer/internal/domain"
)

const (
	// estimateWarmup is how long a queue runs before a remaining time is shown.
	estimateWarmup = 10 * time.Second
	// estimateSamples bounds the moving average of remaining seconds.
	estimateSamples = 20
)

// watchState is the observer's view of the running job.
type watchState struct {
	job       *Job
	startedAt time.Time
	lastSent  int
	lastMove  time.Time
	handled   bool
	message   string
}

// Poll samples the queue, applies the idle and job timeouts and returns the
// snapshot to report. Call it periodically from the driving goroutine.
func (e *Engine) Poll() domain.QueueSnapshot {
	now := e.now()

	e.mu.Lock()
	snap := e.snapshotLocked()
	if !e.running || e.current < 0 || e.current >= len(e.jobs) {
		e.watch.job = nil
		e.mu.Unlock()
		return snap
	}
	job := e.jobs[e.current]
	js := job.Snapshot()

	w := &e.watch
	switch {
	case w.job != job:
		w.job = job
		w.startedAt = now
		w.lastSent = js.BytesSent
		w.lastMove = now
	case js.BytesSent != w.lastSent:
		w.lastSent = js.BytesSent
		w.lastMove = now
	}

	reason := ""
	closePort := false
	if !w.handled && js.Status == domain.JobStatusRunning {
		switch {
		case e.cfg.IdleTimeout > 0 && js.BytesTotal > 0 && now.Sub(w.lastMove) > e.cfg.IdleTimeout:
			reason = fmt.Sprintf("serial port blocked (no data for %.1fs)", now.Sub(w.lastMove).Seconds())
		case e.cfg.JobTimeout > 0 && js.BytesTotal == 0 && !job.ConfirmBeforeRun && now.Sub(w.startedAt) > e.cfg.JobTimeout:
			reason = fmt.Sprintf("job timeout (running for %.1fs)", now.Sub(w.startedAt).Seconds())
		}
	}
	if reason != "" {
		w.handled = true
		w.message = reason
		closePort = e.timeoutLocked(job)
	}

	if w.handled {
		snap.Mode = e.session.Mode()
		queueID := e.queueID
		link := e.transport
		e.mu.Unlock()
		if reason != "" {
			link.Interrupt()
			if closePort {
				if err := link.Close(); err != nil {
					e.logger.Warn("close after timeout failed", zap.Error(err))
				}
			}
			e.logger.Warn("transfer timed out", zap.String("queue_id", queueID), zap.String("reason", reason))
			e.events.Publish(Event{QueueID: queueID, JobID: job.ID, Type: EventTypeError, Kind: job.Kind, Mode: domain.SessionModeBroken, Message: reason})
			if e.ui != nil {
				e.ui.NotifyError("The transfer was stopped because the serial port was blocked.\nPlease check the connection and port settings.")
			}
		}
		return snap
	}

	snap.Remaining = e.remainingLocked(now, snap.BytesSent, snap.BytesTotal)
	e.mu.Unlock()
	return snap
}

// timeoutLocked cancels the queue and marks the port closed. It reports
// whether the caller has to close the port once the lock is released; the
// worker observes the failure and exits on its own.
func (e *Engine) timeoutLocked(job *Job) bool {
	e.stop.Store(true)
	job.Cancel()
	e.session.setMode(domain.SessionModeBroken)
	wasOpen := e.portOpen
	e.portOpen = false
	return wasOpen
}

// remainingLocked estimates the time left from the overall transfer rate.
func (e *Engine) remainingLocked(now time.Time, sent, total int) string {
	if total <= 0 {
		return ""
	}
	sent = min(sent, total)
	elapsed := now.Sub(e.startedAt)
	if sent == 0 || elapsed <= estimateWarmup {
		return ""
	}
	if sent == total {
		e.remaining = e.remaining[:0]
		return formatRemaining(0)
	}

	rate := float64(sent) / elapsed.Seconds()
	seconds := ceilDiv(float64(total-sent), rate)

	e.remaining = append(e.remaining, seconds)
	if len(e.remaining) > estimateSamples {
		e.remaining = e.remaining[len(e.remaining)-estimateSamples:]
	}
	avg := ceilDiv(float64(lo.Sum(e.remaining)), float64(len(e.remaining)))
	return formatRemaining(avg)
}

func ceilDiv(a, b float64) int {
	q := a / b
	n := int(q)
	if float64(n) < q {
		n++
	}
	return n
}

// formatRemaining renders seconds as 3m05s or 1h02m05s.
func formatRemaining(seconds int) string {
	m, s := seconds/60, seconds%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// Watch polls every interval until ctx ends, handing each snapshot to fn.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, fn func(domain.QueueSnapshot)) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := e.Poll()
			if fn != nil {
				fn(snap)
			}
		}
	}
}
