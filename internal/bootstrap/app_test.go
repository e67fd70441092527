package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/config"
	"kc-transfer/internal/diagnostics"
	"kc-transfer/internal/domain"
	"kc-transfer/internal/jobs"
)

// fakeStore keeps settings in memory for App tests.
type fakeStore struct {
	mu       sync.Mutex
	settings domain.Settings
	saves    int
}

// Load returns the stored settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

// Save replaces the stored settings.
func (s *fakeStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.saves++
	return nil
}

// fakeLink records everything written to the target.
type fakeLink struct {
	mu      sync.Mutex
	written bytes.Buffer
	devices []string
	last    []byte
}

func (l *fakeLink) Open(device string, baud int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.devices = append(l.devices, device)
	return nil
}

func (l *fakeLink) Write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written.Write(p)
	l.last = append([]byte(nil), p...)
	return nil
}

func (l *fakeLink) Flush() error { return nil }
func (l *fakeLink) Close() error { return nil }
func (l *fakeLink) Interrupt()   {}

func (l *fakeLink) bytes() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.written.Bytes()...)
}

// fakeUI answers every question the same way and records it.
type fakeUI struct {
	mu     sync.Mutex
	answer bool
	asked  []string
	errors []string
}

func (u *fakeUI) Confirm(question string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.asked = append(u.asked, question)
	return u.answer
}

func (u *fakeUI) NotifyError(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors = append(u.errors, message)
}

func (u *fakeUI) questions() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.asked...)
}

// newTestApp builds an App whose engine never sleeps.
func newTestApp(t *testing.T, store *fakeStore, ui *fakeUI, link *fakeLink) *App {
	t.Helper()
	tuning := config.DefaultTuning()
	engine := jobs.NewEngineForTests(link, ui, engineConfig(tuning, store.settings), func(time.Duration) {}, time.Now)

	app := &App{
		Settings: store.settings,
		Store:    store,
		Engine:   engine,
		Tuning:   tuning,
		Logger:   zap.NewNop(),
		checker: diagnostics.NewCheckerForTests(
			func() ([]string, error) { return []string{"COM1", "COM2"}, nil },
			os.Stat,
			func() (string, error) { return "test host", nil },
		),
		ui:        ui,
		listPorts: func() ([]string, error) { return []string{"COM1", "COM2"}, nil },
	}
	engine.Events().Subscribe(app.emitEvent)
	return app
}

func waitOutcome(t *testing.T, app *App) domain.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := app.Engine.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return outcome
}

// TestSendMachineCodeFile checks load, reset prompt and the written protocol.
func TestSendMachineCodeFile(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "zeros.bin")
	if err := os.WriteFile(input, make([]byte, 16), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	store := &fakeStore{settings: domain.Settings{SerialPort: "COM1", HelperDir: root, ConfirmReset: true}}
	ui := &fakeUI{answer: true}
	link := &fakeLink{}
	app := newTestApp(t, store, ui, link)

	desc, err := app.LoadFile(input)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if desc.Kind != domain.ContentMachineCode || desc.Payload != nil {
		t.Fatalf("descriptor = %s (payload %d bytes)", desc, len(desc.Payload))
	}

	if _, err := app.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}
	if outcome := waitOutcome(t, app); outcome != domain.OutcomeDone {
		t.Fatalf("outcome = %s, want %s", outcome, domain.OutcomeDone)
	}

	want := []byte{0x1B, 0x54, 0x00, 0x02, 0x10, 0x00}
	want = append(want, make([]byte, 16)...)
	want = append(want, 0x1B, 0x55, 0x00, 0x02)
	if got := link.bytes(); !bytes.Equal(got, want) {
		t.Fatalf("written = % X, want % X", got, want)
	}
	if q := ui.questions(); len(q) != 2 || q[0] != resetQuestion {
		t.Fatalf("questions = %q", q)
	}
	if len(link.devices) != 1 || link.devices[0] != "COM1" {
		t.Fatalf("opened devices = %v", link.devices)
	}
	assertEventTypeExists(t, app.JobEvents(0), jobs.EventTypeResult)
}

// TestSendAbortsWhenResetDeclined verifies nothing is queued without a reset.
func TestSendAbortsWhenResetDeclined(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "zeros.bin")
	if err := os.WriteFile(input, make([]byte, 8), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	store := &fakeStore{settings: domain.Settings{SerialPort: "COM1", HelperDir: root, ConfirmReset: true}}
	app := newTestApp(t, store, &fakeUI{answer: false}, &fakeLink{})

	if _, err := app.LoadFile(input); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := app.Send(); !errors.Is(err, ErrAborted) {
		t.Fatalf("send error = %v, want %v", err, ErrAborted)
	}
	if jobsQueued := len(app.QueueSnapshot().Jobs); jobsQueued != 0 {
		t.Fatalf("queued jobs = %d, want 0", jobsQueued)
	}
}

// TestSendWithoutFile checks the guard for an empty selection.
func TestSendWithoutFile(t *testing.T) {
	app := newTestApp(t, &fakeStore{}, &fakeUI{answer: true}, &fakeLink{})
	if _, err := app.Send(); !errors.Is(err, ErrNothingLoaded) {
		t.Fatalf("send error = %v, want %v", err, ErrNothingLoaded)
	}
}

// TestLoadFileRejectsEmptyInput reports the classification code.
func TestLoadFileRejectsEmptyInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "empty.kcc")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	app := newTestApp(t, &fakeStore{}, &fakeUI{answer: true}, &fakeLink{})

	desc, err := app.LoadFile(input)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !desc.IsError || desc.ValidCode != 1000 {
		t.Fatalf("descriptor = %+v", desc)
	}
}

// TestPasteThenLiveKeys checks that paste enters keyboard mode and live keys
// are forwarded afterwards.
func TestPasteThenLiveKeys(t *testing.T) {
	store := &fakeStore{settings: domain.Settings{SerialPort: "COM1"}}
	link := &fakeLink{}
	app := newTestApp(t, store, &fakeUI{answer: true}, link)

	if err := app.SendKey("a", false, false); !errors.Is(err, jobs.ErrNotKeyboardMode) {
		t.Fatalf("SendKey before paste = %v, want %v", err, jobs.ErrNotKeyboardMode)
	}

	if _, err := app.Paste("10 PRINT 1\n", true, false); err != nil {
		t.Fatalf("paste: %v", err)
	}
	if outcome := waitOutcome(t, app); outcome != domain.OutcomeDone {
		t.Fatalf("outcome = %s, want %s", outcome, domain.OutcomeDone)
	}
	if mode := app.Engine.Session().Mode(); mode != domain.SessionModeKeyboard {
		t.Fatalf("mode = %s, want %s", mode, domain.SessionModeKeyboard)
	}

	if err := app.SendKey("F3", false, false); err != nil {
		t.Fatalf("SendKey: %v", err)
	}
	if !bytes.Equal(link.last, []byte{0xF3}) {
		t.Fatalf("last write = % X, want F3", link.last)
	}
	want, _ := codec.RuneKey('a')
	if err := app.SendKey("a", false, false); err != nil {
		t.Fatalf("SendKey: %v", err)
	}
	if !bytes.Equal(link.last, want) {
		t.Fatalf("last write = % X, want % X", link.last, want)
	}
}

// TestPasteRejectsEmptyText verifies nothing is queued for empty text.
func TestPasteRejectsEmptyText(t *testing.T) {
	app := newTestApp(t, &fakeStore{}, &fakeUI{answer: true}, &fakeLink{})
	if _, err := app.Paste("", false, false); !errors.Is(err, jobs.ErrNothingToSend) {
		t.Fatalf("paste error = %v, want %v", err, jobs.ErrNothingToSend)
	}
}

// TestKeyPayloadModifiers maps modifier combinations onto key names.
func TestKeyPayloadModifiers(t *testing.T) {
	got, ok := keyPayload("Delete", true, true)
	if !ok || !bytes.Equal(got, []byte{0x0F}) {
		t.Fatalf("keyPayload(Delete, shift+ctrl) = % X, %v", got, ok)
	}
	if _, ok := keyPayload("NoSuchKey", false, false); ok {
		t.Fatal("unknown key should not map")
	}
}

// TestSaveSettingsNormalizesAndSwitchesDevice checks the settings path.
func TestSaveSettingsNormalizesAndSwitchesDevice(t *testing.T) {
	store := &fakeStore{}
	app := newTestApp(t, store, &fakeUI{answer: true}, &fakeLink{})

	saved, err := app.SaveSettings(domain.Settings{SerialPort: "  COM2 ", HelperDir: "  "})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SerialPort != "COM2" {
		t.Fatalf("SerialPort = %q, want COM2", saved.SerialPort)
	}
	if saved.HelperDir != config.DefaultSettings().HelperDir {
		t.Fatalf("HelperDir = %q", saved.HelperDir)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if len(app.GetDiagnostics().Items) == 0 {
		t.Fatal("expected refreshed diagnostics")
	}
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}

// TestBoundMethodsTakeSerializableArgs verifies every exported App method can
// be called from the frontend: no callbacks or channels in its signature.
func TestBoundMethodsTakeSerializableArgs(t *testing.T) {
	typ := reflect.TypeOf(&App{})
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		for j := 1; j < m.Type.NumIn(); j++ {
			if k := m.Type.In(j).Kind(); k == reflect.Func || k == reflect.Chan {
				t.Fatalf("%s argument %d is a %s", m.Name, j, k)
			}
		}
		for j := 0; j < m.Type.NumOut(); j++ {
			if k := m.Type.Out(j).Kind(); k == reflect.Func || k == reflect.Chan {
				t.Fatalf("%s result %d is a %s", m.Name, j, k)
			}
		}
	}
}
