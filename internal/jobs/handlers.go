package jobs

import (
	"encoding/binary"

	"go.uber.org/zap"

	"kc-transfer/internal/domain"
)

const (
	keyBreak  = 0x03
	keyClear  = 0x0C
	keyReturn = 0x0D
	keyLF     = 0x0A
	keyEscape = 0x1B

	commandLoad = 0x54
	commandRun  = 0x55

	stageWrite = "write"
)

// write sends p and flushes it. Transport failures break the session.
func (e *Engine) write(job *Job, s *Session, p []byte) error {
	err := e.transport.Write(p)
	if err == nil {
		err = e.transport.Flush()
	}
	if err != nil {
		s.setMode(domain.SessionModeBroken)
		e.logger.Warn("transport write failed", zap.String("kind", string(job.Kind)), zap.Error(err))
		return &JobError{Kind: job.Kind, Stage: stageWrite, Message: "transport write failed", Err: err}
	}
	return nil
}

// writeKeys sends each part with the flush but without extra pacing.
func (e *Engine) writeKeys(job *Job, s *Session, parts ...string) error {
	for _, part := range parts {
		if err := e.write(job, s, []byte(part)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pause(ms float64) {
	if d := domain.Millis(ms); d > 0 {
		e.sleep(d)
	}
}

// writeHeader writes the first two header bytes, waits, then the rest.
func (e *Engine) writeHeader(job *Job, s *Session, header []byte) error {
	if err := e.write(job, s, header[:2]); err != nil {
		return err
	}
	e.pause(e.cfg.Timing.HeaderPause)
	return e.write(job, s, header[2:])
}

func (e *Engine) startKeyboardMode(job *Job, s *Session) (domain.JobStatus, error) {
	if err := e.write(job, s, []byte{keyReturn}); err != nil {
		return domain.JobStatusFailed, err
	}
	s.setMode(domain.SessionModeKeyboard)
	e.pause(e.cfg.Timing.InitDelay)
	return domain.JobStatusDone, nil
}

// sendBinary loads the payload through the polling protocol (ESC T).
func (e *Engine) sendBinary(job *Job, s *Session) (domain.JobStatus, error) {
	// A binary load overwrites whatever companion program was typed in.
	s.setLastLine("")

	desc := job.Descriptor
	if desc.IsError || len(desc.Payload) == 0 {
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "validate", Message: "no payload to load"}
	}
	if desc.LoadStart == nil {
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "validate", Message: "load address missing"}
	}
	if len(desc.Payload) > 0xFFFF {
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "validate", Message: "payload exceeds 64K"}
	}

	header := make([]byte, 6)
	header[0], header[1] = keyEscape, commandLoad
	binary.LittleEndian.PutUint16(header[2:], uint16(*desc.LoadStart))
	binary.LittleEndian.PutUint16(header[4:], uint16(len(desc.Payload)))
	if err := e.writeHeader(job, s, header); err != nil {
		return domain.JobStatusFailed, err
	}
	s.setMode(domain.SessionModeBinary)
	job.setSent(0)

	total := len(desc.Payload)
	offset := 0
	job.setCancelable(true)
	for offset < total && !job.canceled() {
		end := min(offset+e.cfg.ChunkSize, total)
		if err := e.write(job, s, desc.Payload[offset:end]); err != nil {
			job.setCancelable(false)
			return domain.JobStatusFailed, err
		}
		offset = end
		job.setSent(offset)
	}
	job.setCancelable(false)

	if job.canceled() && offset < total {
		// The target still waits for the rest of the block.
		s.setMode(domain.SessionModeBroken)
		return domain.JobStatusCanceled, nil
	}
	return domain.JobStatusDone, nil
}

// runBinary starts code through the polling protocol (ESC U).
func (e *Engine) runBinary(job *Job, s *Session) (domain.JobStatus, error) {
	entry := job.Descriptor.EntrySelected()
	if job.Descriptor.IsError || entry == nil {
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "validate", Message: "entry address missing"}
	}

	header := make([]byte, 4)
	header[0], header[1] = keyEscape, commandRun
	binary.LittleEndian.PutUint16(header[2:], uint16(*entry))
	if err := e.writeHeader(job, s, header); err != nil {
		return domain.JobStatusFailed, err
	}
	s.setMode(domain.SessionModeBinary)
	return domain.JobStatusDone, nil
}

// runBinaryMenu types the menu name of a loaded program at the CAOS prompt.
func (e *Engine) runBinaryMenu(job *Job, s *Session) (domain.JobStatus, error) {
	name := job.Descriptor.PrologueName
	if name == "" {
		return domain.JobStatusFailed, &JobError{Kind: job.Kind, Stage: "validate", Message: "menu name missing"}
	}
	if err := e.writeKeys(job, s, name, "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	return domain.JobStatusDone, nil
}

func (e *Engine) startBasic(job *Job, s *Session) (domain.JobStatus, error) {
	t := e.cfg.Timing
	if err := e.writeKeys(job, s, "B"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(t.CharDelay)
	if err := e.writeKeys(job, s, "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(t.BasicEnterDelay)
	// Second return accepts the default memory size question.
	if err := e.writeKeys(job, s, "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(t.BasicReadyDelay)
	return domain.JobStatusDone, nil
}

func (e *Engine) startRebasic(job *Job, s *Session) (domain.JobStatus, error) {
	if err := e.writeKeys(job, s, "REBASIC", "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(e.cfg.Timing.RebasicDelay)
	return domain.JobStatusDone, nil
}

func (e *Engine) runBasic(job *Job, s *Session) (domain.JobStatus, error) {
	cmd := "RUN"
	if line := job.Descriptor.ResumeLine; line != "" {
		cmd += " " + line
	}
	if err := e.writeKeys(job, s, cmd, "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	return domain.JobStatusDone, nil
}

// resetBascoder removes previously typed lines from the companion program.
func (e *Engine) resetBascoder(job *Job, s *Session) (domain.JobStatus, error) {
	last := s.LastLine()
	if last == "" {
		return domain.JobStatusDone, nil
	}
	step := e.cfg.Timing.ResetStepDelay

	if err := e.write(job, s, []byte{keyBreak}); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(step)
	if err := e.writeKeys(job, s, "DELETE 1000,"+last, "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(step)
	if err := e.writeKeys(job, s, "CLEAR", "\r"); err != nil {
		return domain.JobStatusFailed, err
	}
	e.pause(step)
	return domain.JobStatusDone, nil
}

// clearScreen sends CLS and waits until the prompt is back.
func (e *Engine) clearScreen(job *Job, s *Session) error {
	if err := e.write(job, s, []byte{keyClear}); err != nil {
		return err
	}
	e.pause(e.cfg.Timing.CharDelay)
	if err := e.write(job, s, []byte{keyReturn}); err != nil {
		return err
	}
	e.pause(e.cfg.Timing.ClearScreenDelay)
	return nil
}
