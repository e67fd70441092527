package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"kc-transfer/internal/bootstrap"
	"kc-transfer/internal/config"
	"kc-transfer/internal/domain"
	"kc-transfer/internal/observability"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Tuning file (YAML)." type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level."`
	Device   string `short:"d" help:"Serial device; overrides the saved selection."`
	Turbo    string `help:"Turbo loading: auto uses the saved selection." enum:"auto,on,off" default:"auto"`
	Yes      bool   `short:"y" help:"Answer every question with yes."`
}

// newApp builds the application with the CLI overrides applied.
func (g *Globals) newApp() (*bootstrap.App, error) {
	tuning, err := config.LoadTuning(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	if g.LogLevel != "" {
		tuning.Log.Level = g.LogLevel
	}
	logger, err := observability.SetupLogger(tuning.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	store := &overrideStore{Store: config.NewJSONStore(config.DefaultSettingsPath()), device: g.Device, turbo: g.Turbo}
	return bootstrap.New(bootstrap.Options{
		Tuning: tuning,
		Logger: logger,
		Store:  store,
		UI:     newPromptUI(os.Stdin, os.Stderr, g.Yes),
	})
}

// overrideStore applies command line selections on top of the saved ones.
// Saving persists the selections as given.
type overrideStore struct {
	config.Store
	device string
	turbo  string
}

func (s *overrideStore) Load() (domain.Settings, error) {
	settings, err := s.Store.Load()
	if err != nil {
		return settings, err
	}
	if s.device != "" {
		settings.SerialPort = s.device
	}
	switch s.turbo {
	case "on":
		settings.Turbo = true
	case "off":
		settings.Turbo = false
	}
	return settings, nil
}

// runQueue drives the watchdog and progress line until the queue drained.
func runQueue(app *bootstrap.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lastPercent := -1
	go app.Engine.Watch(ctx, app.Tuning.Watchdog.PollInterval(), func(snap domain.QueueSnapshot) {
		if !snap.Running || snap.BytesTotal == 0 {
			return
		}
		percent := snap.BytesSent * 100 / snap.BytesTotal
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		fmt.Fprintf(os.Stderr, "\r%3d%% %d/%d bytes %s   ", percent, snap.BytesSent, snap.BytesTotal, snap.Remaining)
	})

	outcome, err := app.Engine.Wait(context.Background())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	for _, job := range app.QueueSnapshot().Jobs {
		app.Logger.Debug("job finished", zap.String("kind", string(job.Kind)), zap.String("status", string(job.Status)))
	}
	if outcome != domain.OutcomeDone {
		return fmt.Errorf("transfer %s (session %s)", outcome, app.Engine.Session().Mode())
	}
	return nil
}

// closeApp releases the serial port and flushes the log.
func closeApp(app *bootstrap.App) {
	if err := app.Engine.Close(); err != nil {
		app.Logger.Warn("close serial port", zap.Error(err))
	}
	_ = app.Logger.Sync()
}
