package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"kc-transfer/internal/domain"
)

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	var fixErr error

	switch {
	case id == "serial_port":
		settings, settingsChanged, fixErr = a.fixSerialPort(settings)
	case id == "helper_dir":
		fixErr = fixHelperDir(settings)
	case strings.HasPrefix(id, "helper_"):
		fixErr = missingHelperError(settings, strings.TrimPrefix(id, "helper_"))
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if err := a.Engine.SetDevice(settings.SerialPort); err != nil {
			return a.refreshDiagnosticsFromSettings(settings), fmt.Errorf("switch serial port: %w", err)
		}
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings, HelperCatalog())
	}
	return a.Diagnostics
}

// fixSerialPort selects the first available port when the configured one is
// missing.
func (a *App) fixSerialPort(settings domain.Settings) (domain.Settings, bool, error) {
	ports, err := a.listPorts()
	if err != nil {
		return settings, false, fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return settings, false, fmt.Errorf("no serial ports found; connect the V.24 adapter")
	}
	for _, port := range ports {
		if port == settings.SerialPort {
			return settings, false, nil
		}
	}

	a.Logger.Info("serial port selected", zap.String("previous", settings.SerialPort), zap.String("port", ports[0]))
	settings.SerialPort = ports[0]
	return settings, true, nil
}

// fixHelperDir creates the helper directory.
func fixHelperDir(settings domain.Settings) error {
	if settings.HelperDir == "" {
		return fmt.Errorf("helper directory is empty")
	}
	if err := os.MkdirAll(settings.HelperDir, 0o755); err != nil {
		return fmt.Errorf("create helper directory: %w", err)
	}
	return nil
}

// missingHelperError explains where a helper image has to be copied. Helper
// images are not distributed with the program.
func missingHelperError(settings domain.Settings, helperID string) error {
	for _, helper := range helperCatalog {
		if helper.ID == helperID {
			return fmt.Errorf("copy %s into %s", helper.FileName, filepath.Clean(settings.HelperDir))
		}
	}
	return fmt.Errorf("unknown helper image: %s", helperID)
}
