package jobs

import (
	"go.uber.org/zap"

	"kc-transfer/internal/domain"
)

// maxExtraStatements caps the colon count of one line; longer lines are
// unlikely and would only inflate the delay.
const maxExtraStatements = 8

// cursor tracks where the target's screen cursor is while typing.
type cursor struct {
	line     int
	row      int
	inString bool
}

// typeText injects the payload as keystrokes. With fast set the screen is
// cleared up front and whenever it fills, so the target never scrolls.
// endReturn terminates a final unterminated line.
func (e *Engine) typeText(job *Job, s *Session, fast, endReturn bool) (domain.JobStatus, error) {
	t := e.cfg.Timing
	payload := job.Descriptor.Payload
	total := len(payload)

	cur := cursor{row: t.PromptWidth}
	extra := 0
	lines := 0
	text := make([]byte, 0, 80)
	lastLine := ""

	if fast {
		if err := e.clearScreen(job, s); err != nil {
			return domain.JobStatusFailed, err
		}
		cur.line = 2
	}

	i := 0
	job.setCancelable(true)
	for i < total && !job.canceled() {
		b := payload[i]
		i++
		if b == keyLF {
			continue
		}
		if err := e.write(job, s, []byte{b}); err != nil {
			job.setCancelable(false)
			return domain.JobStatusFailed, err
		}
		job.setSent(i)

		delay := t.CharDelay
		if b == keyReturn {
			line := string(text)
			if job.Descriptor.Kind == domain.ContentBasicodeListing {
				if n := leadingLineNumber(line); n != "" {
					lastLine = n
				}
			}
			cur.row = t.PromptWidth
			cur.line++
			cur.inString = false
			lines++

			cost := e.analyzer.Analyze(line)
			extra += cost.JumpTargets
			delay += t.ProcessDelay
			delay += float64(extra) * t.StatementDelay
			delay += float64(lines+job.BasicLineOffset) * t.LineThrottle
			delay += float64(cost.DimRefs) * t.DimRefDelay
			delay += float64(cost.DimUnits) * t.DimUnitDelay
			delay += float64(cost.VarRefs) * t.VarRefDelay
			e.logger.Debug("line typed",
				zap.Int("line", lines),
				zap.Int("statements", extra+1),
				zap.Int("vars", cost.VarRefs),
				zap.Int("dim_refs", cost.DimRefs),
				zap.Int("dim_units", cost.DimUnits),
				zap.Float64("delay_ms", delay))
			extra = 0
			text = text[:0]

			// CLS takes one line, the following return a second one.
			if fast && cur.line >= t.VisibleLines-1 {
				e.pause(delay)
				if err := e.clearScreen(job, s); err != nil {
					job.setCancelable(false)
					return domain.JobStatusFailed, err
				}
				cur = cursor{line: 2, row: t.PromptWidth}
				delay = 0
			}
		} else {
			text = append(text, b)
			if b >= 0x20 && b < 0x80 {
				cur.row++
				if b == '"' {
					cur.inString = !cur.inString
				}
				if b == ':' && !cur.inString && extra < maxExtraStatements {
					extra++
				}
			}
			if cur.row >= t.LineWidth-t.PromptWidth {
				cur.row = 0
				cur.line++
				if !fast {
					delay += t.LineScrollDelay
				}
			}
		}
		e.pause(delay)
	}

	if job.SaveResumeLine && lastLine != "" {
		s.setLastLine(lastLine)
	} else {
		s.setLastLine("")
	}

	canceled := job.canceled() && i < total
	if endReturn && !canceled && total > 0 && payload[total-1] != keyReturn && payload[total-1] != keyLF {
		settle := t.ProcessDelay + float64(extra)*t.StatementDelay + float64(lines)*t.LineThrottle
		e.pause(settle)
		if err := e.write(job, s, []byte{keyReturn}); err != nil {
			job.setCancelable(false)
			return domain.JobStatusFailed, err
		}
		e.pause(settle)
	}
	job.setCancelable(false)

	if canceled {
		return domain.JobStatusCanceled, nil
	}
	job.setSent(total)
	return domain.JobStatusDone, nil
}

// leadingLineNumber returns the up to five digit line number a typed line
// starts with.
func leadingLineNumber(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	start := i
	for i < len(line) && i-start < 5 && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return line[start:i]
}
