package jobs

import (
	"errors"
	"testing"

	"kc-transfer/internal/domain"
)

func jobKinds(jobs []*Job) []domain.JobKind {
	out := make([]domain.JobKind, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Kind)
	}
	return out
}

func assertKinds(t *testing.T, jobs []*Job, want ...domain.JobKind) {
	t.Helper()
	got := jobKinds(jobs)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func testHelpers() Helpers {
	low := machineCode(0x0200, 0x80)
	high := machineCode(0xBF00, 0x80)
	bascoder := machineCode(0x0300, 0x400)
	bascoder.Kind = domain.ContentBasicMemoryImage
	return Helpers{StubLow: &low, StubHigh: &high, Bascoder: &bascoder}
}

// TestPlanBasicListing verifies the listing recipe and the payload-free run job.
func TestPlanBasicListing(t *testing.T) {
	desc := domain.TransferDescriptor{Kind: domain.ContentBasicListing, Payload: []byte("10 PRINT\r"), ResumeLine: "10"}
	jobs, err := NewPlanner(false, Helpers{}).Plan(desc, false)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs,
		domain.JobKindStartKeyboardMode,
		domain.JobKindStartBasic,
		domain.JobKindSendBasicText,
		domain.JobKindRunBasic,
	)
	if !jobs[2].ConfirmBeforeRun {
		t.Fatalf("typing job should ask before running")
	}
	run := jobs[3]
	if run.Descriptor.Payload != nil || run.Descriptor.ResumeLine != "10" {
		t.Fatalf("run descriptor = %+v", run.Descriptor)
	}
}

// TestPlanMachineCodeTurboPicksHighStub verifies stub choice for low programs.
func TestPlanMachineCodeTurboPicksHighStub(t *testing.T) {
	desc := machineCode(0x0200, 0x100)
	desc.EntryFromPrologue = domain.Addr(0x0210)
	desc.PrologueName = "GAME"

	jobs, err := NewPlanner(true, testHelpers()).Plan(desc, false)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs,
		domain.JobKindSendBinary,
		domain.JobKindRunBinary,
		domain.JobKindSendBinary,
		domain.JobKindStartKeyboardMode,
		domain.JobKindRunBinaryMenu,
	)
	if start := *jobs[0].Descriptor.LoadStart; start != 0xBF00 {
		t.Fatalf("stub start = %04X, want BF00", start)
	}
	if jobs[1].RebaudTo != 2400 || jobs[1].Descriptor.Payload != nil {
		t.Fatalf("stub run job = %+v", jobs[1].Snapshot())
	}
	load := jobs[2]
	if load.RebaudTo != 1200 || !load.ConfirmBeforeRun {
		t.Fatalf("load job rebaud=%d confirm=%v", load.RebaudTo, load.ConfirmBeforeRun)
	}
}

// TestPlanMachineCodeWithoutTurbo verifies no rebaud happens at the base rate.
func TestPlanMachineCodeWithoutTurbo(t *testing.T) {
	desc := machineCode(0x4000, 0x10)
	desc.EntryFromHeader = domain.Addr(0x4000)

	jobs, err := NewPlanner(false, Helpers{}).Plan(desc, false)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs, domain.JobKindSendBinary, domain.JobKindRunBinary)
	if jobs[0].RebaudTo != 0 {
		t.Fatalf("rebaud = %d, want 0", jobs[0].RebaudTo)
	}

	desc.EntryFromHeader = nil
	jobs, err = NewPlanner(false, Helpers{}).Plan(desc, false)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs, domain.JobKindSendBinary)
}

// TestPlanBasicodeReloadsCompanion verifies the full BASICODE recipe.
func TestPlanBasicodeReloadsCompanion(t *testing.T) {
	desc := domain.TransferDescriptor{Kind: domain.ContentBasicodeListing, Payload: []byte("1000 A=100:GOTO 20\r")}

	jobs, err := NewPlanner(false, testHelpers()).Plan(desc, false)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs,
		domain.JobKindSendBinary,
		domain.JobKindStartKeyboardMode,
		domain.JobKindStartRebasic,
		domain.JobKindRunBasic,
		domain.JobKindSendBasicText,
		domain.JobKindRunBasic,
	)
	if !jobs[4].SaveResumeLine || !jobs[4].ConfirmBeforeRun {
		t.Fatalf("typing job should remember the last line and ask")
	}

	jobs, err = NewPlanner(false, testHelpers()).Plan(desc, true)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	assertKinds(t, jobs,
		domain.JobKindStartKeyboardMode,
		domain.JobKindResetBascoder,
		domain.JobKindSendBasicText,
		domain.JobKindRunBasic,
	)
}

// TestPlanMissingHelpers verifies recipes fail when helper images are absent.
func TestPlanMissingHelpers(t *testing.T) {
	basicode := domain.TransferDescriptor{Kind: domain.ContentBasicodeListing, Payload: []byte("1000 A=1\r")}
	if _, err := NewPlanner(false, Helpers{}).Plan(basicode, false); !errors.Is(err, ErrHelperMissing) {
		t.Fatalf("Plan = %v, want ErrHelperMissing", err)
	}
	if _, err := NewPlanner(true, Helpers{}).Plan(machineCode(0x0300, 4), false); !errors.Is(err, ErrHelperMissing) {
		t.Fatalf("Plan turbo = %v, want ErrHelperMissing", err)
	}
	rejected := domain.TransferDescriptor{IsError: true, ValidCode: 1000}
	if _, err := NewPlanner(false, Helpers{}).Plan(rejected, false); !errors.Is(err, ErrNothingToSend) {
		t.Fatalf("Plan rejected = %v, want ErrNothingToSend", err)
	}
}

// TestPlanPaste verifies keyboard mode is only entered when needed.
func TestPlanPaste(t *testing.T) {
	jobs := PlanPaste([]byte("HELLO\r"), false, false, domain.SessionModeKeyboard)
	assertKinds(t, jobs, domain.JobKindSendText)

	jobs = PlanPaste([]byte("10 PRINT\r"), true, true, domain.SessionModeUninitialized)
	assertKinds(t, jobs, domain.JobKindStartKeyboardMode, domain.JobKindSendBasicText)
	if jobs[1].BasicLineOffset != 2000 {
		t.Fatalf("offset = %d, want 2000", jobs[1].BasicLineOffset)
	}
}
