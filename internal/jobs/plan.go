package jobs

import (
	"fmt"
	"time"

	"kc-transfer/internal/domain"
)

const (
	// slowPasteOffset makes pasted BASIC text paced as if 2000 lines were typed.
	slowPasteOffset = 2000

	stubStartPause     = 100 * time.Millisecond
	binaryLoadPause    = 100 * time.Millisecond
	rebasicPause       = 500 * time.Millisecond
	bascoderStartPause = 3000 * time.Millisecond
)

// Helpers are the binaries a plan may preload on the target.
type Helpers struct {
	// StubLow and StubHigh are the turbo loaders at 0x0200 and 0xBF00.
	StubLow  *domain.TransferDescriptor
	StubHigh *domain.TransferDescriptor
	// Bascoder is the BASICODE companion program.
	Bascoder *domain.TransferDescriptor
}

// Planner turns a classified input into the job queue that delivers it.
type Planner struct {
	Turbo     bool
	Helpers   Helpers
	BaseBaud  int
	TurboBaud int
}

// NewPlanner creates a planner for the 1200/2400 baud polling protocol.
func NewPlanner(turbo bool, helpers Helpers) *Planner {
	return &Planner{
		Turbo:     turbo,
		Helpers:   helpers,
		BaseBaud:  1200,
		TurboBaud: 2400,
	}
}

// Plan builds the job list for desc. With reuseBascoder set a BASICODE
// listing is typed into the already running companion program.
func (p *Planner) Plan(desc domain.TransferDescriptor, reuseBascoder bool) ([]*Job, error) {
	if desc.IsError {
		return nil, fmt.Errorf("%w: classification failed with code %d", ErrNothingToSend, desc.ValidCode)
	}
	bare := desc.WithoutPayload()

	switch desc.Kind {
	case domain.ContentPlainText:
		return []*Job{
			NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
			NewJob(domain.JobKindSendText, desc),
		}, nil

	case domain.ContentBasicListing:
		return []*Job{
			NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
			NewJob(domain.JobKindStartBasic, domain.TransferDescriptor{}),
			NewJob(domain.JobKindSendBasicText, desc, WithConfirm()),
			NewJob(domain.JobKindRunBasic, bare),
		}, nil

	case domain.ContentBasicodeListing:
		return p.planBasicode(desc, bare, reuseBascoder)

	case domain.ContentBasicMemoryImage:
		jobs, err := p.binaryLoad(desc, WithPostPause(binaryLoadPause), WithConfirm())
		if err != nil {
			return nil, err
		}
		return append(jobs,
			NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
			NewJob(domain.JobKindStartRebasic, domain.TransferDescriptor{}, WithPostPause(rebasicPause)),
			NewJob(domain.JobKindRunBasic, bare),
		), nil

	case domain.ContentMachineCode:
		if desc.EntrySelected() == nil {
			return p.binaryLoad(desc)
		}
		jobs, err := p.binaryLoad(desc, WithPostPause(binaryLoadPause), WithConfirm())
		if err != nil {
			return nil, err
		}
		if desc.PrologueName != "" {
			return append(jobs,
				NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
				NewJob(domain.JobKindRunBinaryMenu, bare),
			), nil
		}
		return append(jobs, NewJob(domain.JobKindRunBinary, bare)), nil

	default:
		return nil, fmt.Errorf("%w: unsupported content %q", ErrNothingToSend, desc.Kind)
	}
}

func (p *Planner) planBasicode(desc, bare domain.TransferDescriptor, reuse bool) ([]*Job, error) {
	var jobs []*Job
	if reuse {
		jobs = []*Job{
			NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
			NewJob(domain.JobKindResetBascoder, domain.TransferDescriptor{}),
		}
	} else {
		bascoder := p.Helpers.Bascoder
		if bascoder == nil || bascoder.IsError {
			return nil, fmt.Errorf("%w: companion program", ErrHelperMissing)
		}
		loaded, err := p.binaryLoad(*bascoder)
		if err != nil {
			return nil, err
		}
		jobs = append(loaded,
			NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}),
			NewJob(domain.JobKindStartRebasic, domain.TransferDescriptor{}, WithPostPause(rebasicPause)),
			NewJob(domain.JobKindRunBasic, bascoder.WithoutPayload(), WithPostPause(bascoderStartPause)),
		)
	}
	return append(jobs,
		NewJob(domain.JobKindSendBasicText, desc, WithConfirm(), WithSaveResumeLine()),
		NewJob(domain.JobKindRunBasic, bare),
	), nil
}

// binaryLoad returns the send job for desc, preceded by a turbo loader when
// turbo is on. The load job switches the port back to the base rate.
func (p *Planner) binaryLoad(desc domain.TransferDescriptor, opts ...JobOption) ([]*Job, error) {
	if desc.LoadStart == nil || len(desc.Payload) == 0 {
		return nil, fmt.Errorf("%w: no loadable payload", ErrNothingToSend)
	}
	if !p.Turbo {
		return []*Job{NewJob(domain.JobKindSendBinary, desc, opts...)}, nil
	}

	stub, err := p.stubFor(*desc.LoadStart)
	if err != nil {
		return nil, err
	}
	opts = append([]JobOption{WithRebaud(p.BaseBaud)}, opts...)
	return []*Job{
		NewJob(domain.JobKindSendBinary, *stub),
		NewJob(domain.JobKindRunBinary, stub.WithoutPayload(), WithRebaud(p.TurboBaud), WithPostPause(stubStartPause)),
		NewJob(domain.JobKindSendBinary, desc, opts...),
	}, nil
}

// stubFor picks the turbo loader that does not overlap a program at start.
func (p *Planner) stubFor(start uint32) (*domain.TransferDescriptor, error) {
	low, high := p.Helpers.StubLow, p.Helpers.StubHigh
	if low == nil || high == nil || low.LoadEnd == nil {
		return nil, fmt.Errorf("%w: turbo loader", ErrHelperMissing)
	}
	if start <= *low.LoadEnd {
		return high, nil
	}
	return low, nil
}

// PlanPaste builds the jobs that type clipboard text. Keyboard mode is only
// entered when the target is not already in it.
func PlanPaste(payload []byte, basic, slow bool, mode domain.SessionMode) []*Job {
	var jobs []*Job
	if mode != domain.SessionModeKeyboard {
		jobs = append(jobs, NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{}))
	}

	desc := domain.TransferDescriptor{
		Format:        domain.FormatText,
		Kind:          domain.ContentPlainText,
		Payload:       payload,
		PayloadLength: len(payload),
	}
	if !basic {
		return append(jobs, NewJob(domain.JobKindSendText, desc))
	}
	offset := 0
	if slow {
		offset = slowPasteOffset
	}
	return append(jobs, NewJob(domain.JobKindSendBasicText, desc, WithLineOffset(offset)))
}
