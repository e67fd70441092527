// Package bootstrap wires settings, the transfer engine and the desktop UI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/config"
	"kc-transfer/internal/diagnostics"
	"kc-transfer/internal/domain"
	"kc-transfer/internal/format"
	"kc-transfer/internal/jobs"
	"kc-transfer/internal/transport"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ErrAborted is returned when the user backs out of a reset prompt.
var ErrAborted = errors.New("transfer aborted")

// ErrNothingLoaded is returned by Send before any file was loaded.
var ErrNothingLoaded = errors.New("no file loaded")

const (
	resetQuestion    = "Press RESET on the KC before the transfer.\n\nContinue once the KC has been reset?"
	keyboardQuestion = "Press RESET on the KC to enable keyboard mode.\n\nContinue once the KC has been reset?"
	bascoderQuestion = "Is the Bascoder already loaded?\n\nYes: the program is typed in directly.\nNo: the Bascoder is transferred first."
)

var programDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "KC programs",
		Pattern:     "*.kcc;*.kcb;*.sss;*.tap;*.bin;*.com",
	},
	{
		DisplayName: "Listings and text",
		Pattern:     "*.txt;*.bas;*.asc",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// Options configures App construction. Zero values select the defaults.
type Options struct {
	Tuning    config.Tuning
	Logger    *zap.Logger
	Assets    fs.FS
	Store     config.Store
	UI        jobs.UI
	Transport jobs.Transport
}

// App wires configuration, the transfer engine, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Engine      *jobs.Engine
	Tuning      config.Tuning
	Diagnostics domain.DiagnosticReport
	Logger      *zap.Logger
	assets      fs.FS
	checker     *diagnostics.Checker
	ui          jobs.UI
	listPorts   func() ([]string, error)

	mu             sync.Mutex
	loaded         *domain.TransferDescriptor
	loadedPath     string
	progressActive bool
	runtimeCtx     context.Context
	watchCancel    context.CancelFunc
}

// New builds the application with persisted settings and startup diagnostics.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tuning := opts.Tuning
	if tuning.Serial.Baud == 0 {
		tuning = config.DefaultTuning()
	}

	store := opts.Store
	if store == nil {
		store = config.NewJSONStore(config.DefaultSettingsPath())
	}
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	checker := diagnostics.NewChecker()
	app := &App{
		Settings:    settings,
		Store:       store,
		Tuning:      tuning,
		Diagnostics: checker.Run(settings, HelperCatalog()),
		Logger:      logger,
		assets:      opts.Assets,
		checker:     checker,
		listPorts:   transport.ListPorts,
	}

	app.ui = opts.UI
	if app.ui == nil {
		app.ui = &dialogUI{app: app}
	}
	link := opts.Transport
	if link == nil {
		link = transport.NewSerial()
	}

	app.Engine = jobs.NewEngine(link, app.ui, engineConfig(tuning, settings), logger.Named("jobs"), jobs.NewEventBus(1000))
	app.Engine.Events().Subscribe(app.emitEvent)
	return app, nil
}

// engineConfig maps tuning and user selections onto the engine settings.
func engineConfig(tuning config.Tuning, settings domain.Settings) jobs.Config {
	return jobs.Config{
		Device:      settings.SerialPort,
		Baud:        tuning.Serial.Baud,
		ChunkSize:   tuning.Serial.ChunkSize,
		Timing:      tuning.Timing,
		IdleTimeout: tuning.Watchdog.IdleTimeout(),
		JobTimeout:  tuning.Watchdog.JobTimeout(),
	}
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "KC85 Transfer",
		Width:       980,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the Wails runtime context and starts the progress watcher.
func (a *App) Startup(ctx context.Context) {
	watchCtx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	a.runtimeCtx = ctx
	a.watchCancel = cancel
	a.mu.Unlock()

	go a.watch(watchCtx, a.emitProgress)
}

// watch drives the transfer watchdog until ctx ends and hands every progress
// snapshot to fn.
func (a *App) watch(ctx context.Context, fn func(domain.QueueSnapshot)) {
	a.Engine.Watch(ctx, a.Tuning.Watchdog.PollInterval(), fn)
}

// Shutdown stops the watcher, cancels a running queue and releases the port.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	cancel := a.watchCancel
	a.runtimeCtx = nil
	a.watchCancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if a.Engine.Running() {
		_ = a.Engine.CancelAll()
		_, _ = a.Engine.Wait(context.Background())
	}
	if err := a.Engine.Close(); err != nil {
		a.Logger.Warn("close serial port", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, switches the serial device
// and refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Engine.SetDevice(normalized.SerialPort); err != nil {
		return domain.Settings{}, fmt.Errorf("switch serial port: %w", err)
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns the startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(normalizeSettings(settings)), nil
}

// ListPorts returns the serial devices present on this host.
func (a *App) ListPorts() ([]string, error) {
	return a.listPorts()
}

// PickInputFile opens a native file dialog for program selection.
func (a *App) PickInputFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select KC program",
		Filters: programDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickHelperDirectory opens a native directory picker for helper images.
func (a *App) PickHelperDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select helper directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// LoadFile reads and classifies a file and keeps it ready for Send. The
// returned descriptor carries no payload.
func (a *App) LoadFile(path string) (domain.TransferDescriptor, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.TransferDescriptor{}, fmt.Errorf("input path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.TransferDescriptor{}, fmt.Errorf("read input: %w", err)
	}

	desc := format.Classify(data)
	a.Logger.Info("file classified",
		zap.String("path", path),
		zap.String("descriptor", desc.String()),
		zap.Int("diagnostics", len(desc.Diagnostics)))
	if desc.IsError {
		return desc.WithoutPayload(), fmt.Errorf("%s: unsupported file (code %d)", filepath.Base(path), desc.ValidCode)
	}

	a.mu.Lock()
	a.loaded = &desc
	a.loadedPath = path
	a.mu.Unlock()
	return desc.WithoutPayload(), nil
}

// Send plans the loaded file and starts the queue.
func (a *App) Send() (domain.QueueSnapshot, error) {
	a.mu.Lock()
	loaded, path := a.loaded, a.loadedPath
	a.mu.Unlock()
	if loaded == nil {
		return domain.QueueSnapshot{}, ErrNothingLoaded
	}
	if a.Engine.Running() {
		return domain.QueueSnapshot{}, jobs.ErrQueueRunning
	}

	settings, err := a.GetSettings()
	if err != nil {
		return domain.QueueSnapshot{}, err
	}

	reuse := false
	if loaded.Kind == domain.ContentBasicodeListing && a.Engine.Session().LastLine() != "" {
		reuse = a.ui.Confirm(bascoderQuestion)
	}
	if !reuse {
		if err := a.confirmReset(resetQuestion, settings.ConfirmReset); err != nil {
			return domain.QueueSnapshot{}, err
		}
	}

	helpers, err := loadHelpers(settings.HelperDir)
	if err != nil {
		a.Logger.Warn("helper images", zap.Error(err))
	}
	planner := jobs.NewPlanner(settings.Turbo, helpers)
	planner.BaseBaud = a.Tuning.Serial.Baud
	planner.TurboBaud = a.Tuning.Serial.TurboBaud

	queue, err := planner.Plan(*loaded, reuse)
	if err != nil {
		return domain.QueueSnapshot{}, fmt.Errorf("plan transfer: %w", err)
	}
	a.Logger.Info("transfer planned",
		zap.String("path", path),
		zap.String("kind", string(loaded.Kind)),
		zap.Bool("turbo", settings.Turbo),
		zap.Bool("reuse_bascoder", reuse),
		zap.Int("jobs", len(queue)))
	return a.startQueue(queue)
}

// StartKeyboardMode switches the target into keystroke mode.
func (a *App) StartKeyboardMode() (domain.QueueSnapshot, error) {
	if err := a.confirmReset(keyboardQuestion, false); err != nil {
		return domain.QueueSnapshot{}, err
	}
	return a.startQueue([]*jobs.Job{jobs.NewJob(domain.JobKindStartKeyboardMode, domain.TransferDescriptor{})})
}

// PasteClipboard types the clipboard text on the target.
func (a *App) PasteClipboard(basic, slow bool) (domain.QueueSnapshot, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return domain.QueueSnapshot{}, err
	}
	text, err := wailsruntime.ClipboardGetText(ctx)
	if err != nil {
		return domain.QueueSnapshot{}, fmt.Errorf("read clipboard: %w", err)
	}
	return a.Paste(text, basic, slow)
}

// Paste types text on the target. With basic set the text is paced like a
// BASIC listing; slow adds extra delay per line.
func (a *App) Paste(text string, basic, slow bool) (domain.QueueSnapshot, error) {
	payload := codec.KeystrokePayload(text)
	if len(payload) == 0 {
		return domain.QueueSnapshot{}, jobs.ErrNothingToSend
	}
	if err := a.confirmReset(keyboardQuestion, false); err != nil {
		return domain.QueueSnapshot{}, err
	}
	return a.startQueue(jobs.PlanPaste(payload, basic, slow, a.Engine.Session().Mode()))
}

// SendKey forwards one live key. key is either a single character or a key
// name such as "Home" or "F3".
func (a *App) SendKey(key string, shift, control bool) error {
	payload, ok := keyPayload(key, shift, control)
	if !ok {
		return fmt.Errorf("unmapped key %q", key)
	}
	return a.Engine.SendKeys(payload)
}

// keyPayload maps a UI key event onto KC key codes.
func keyPayload(key string, shift, control bool) ([]byte, bool) {
	runes := []rune(key)
	if len(runes) == 1 && !control {
		return codec.RuneKey(runes[0])
	}

	var mods codec.Modifier
	if shift {
		mods |= codec.ModShift
	}
	if control {
		mods |= codec.ModControl
	}
	return codec.NamedKey(key, mods)
}

// Cancel stops the running queue.
func (a *App) Cancel() error {
	return a.Engine.CancelAll()
}

// QueueSnapshot returns the current queue progress.
func (a *App) QueueSnapshot() domain.QueueSnapshot {
	return a.Engine.Snapshot()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.Engine.Events().Since(sinceSeq)
}

// confirmReset asks the user to reset the target. A broken session always
// asks; otherwise only when always is set.
func (a *App) confirmReset(question string, always bool) error {
	if !always && a.Engine.Session().Mode() != domain.SessionModeBroken {
		return nil
	}
	if !a.ui.Confirm(question) {
		return ErrAborted
	}
	return a.Engine.ResetSession()
}

func (a *App) startQueue(queue []*jobs.Job) (domain.QueueSnapshot, error) {
	if err := a.Engine.Enqueue(queue...); err != nil {
		return domain.QueueSnapshot{}, err
	}
	if err := a.Engine.Start(); err != nil {
		return domain.QueueSnapshot{}, err
	}
	return a.Engine.Snapshot(), nil
}

// emitEvent pushes published engine events to the frontend.
func (a *App) emitEvent(event jobs.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", event)
	}
}

// emitProgress pushes watcher snapshots to the frontend while a queue runs
// and once more after it drained.
func (a *App) emitProgress(snap domain.QueueSnapshot) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	emit := snap.Running || a.progressActive
	a.progressActive = snap.Running
	a.mu.Unlock()
	if ctx != nil && emit {
		wailsruntime.EventsEmit(ctx, "queue:progress", snap)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies the default helper directory.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.SerialPort = strings.TrimSpace(settings.SerialPort)
	settings.HelperDir = strings.TrimSpace(settings.HelperDir)
	if settings.HelperDir == "" {
		settings.HelperDir = config.DefaultSettings().HelperDir
	}
	return settings
}
