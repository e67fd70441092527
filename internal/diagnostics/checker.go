// Package diagnostics runs the startup checks shown in the settings view.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matishsiao/goInfo"
	"github.com/samber/lo"

	"kc-transfer/internal/domain"
	"kc-transfer/internal/transport"
)

// Checker validates the serial link, helper images and host.
type Checker struct {
	listPorts func() ([]string, error)
	stat      func(string) (os.FileInfo, error)
	hostInfo  func() (string, error)
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		listPorts: transport.ListPorts,
		stat:      os.Stat,
		hostInfo:  describeHost,
	}
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	listPorts func() ([]string, error),
	stat func(string) (os.FileInfo, error),
	hostInfo func() (string, error),
) *Checker {
	return &Checker{
		listPorts: listPorts,
		stat:      stat,
		hostInfo:  hostInfo,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings, helpers []domain.HelperImage) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkSerialPort(settings.SerialPort),
		c.checkHelperDir(settings.HelperDir),
	}
	for _, helper := range helpers {
		items = append(items, c.checkHelper(settings.HelperDir, helper, settings.Turbo))
	}
	items = append(items, c.checkHost())

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: lo.ContainsBy(items, func(item domain.DiagnosticItem) bool {
			return item.Status == domain.DiagnosticStatusFail
		}),
		Items: items,
	}
}

// checkSerialPort verifies the configured device exists on this host.
func (c *Checker) checkSerialPort(device string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "serial_port",
		Name: "Serial port",
	}

	ports, err := c.listPorts()
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot enumerate serial ports: %v", err)
		item.Hint = "Check that the USB serial adapter driver is installed."
		return item
	}

	if strings.TrimSpace(device) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No serial port selected."
		if len(ports) > 0 {
			item.Hint = fmt.Sprintf("Available ports: %s", strings.Join(ports, ", "))
		} else {
			item.Hint = "Connect the V.24 adapter of the KC85 and refresh."
		}
		return item
	}

	if !slices.Contains(ports, device) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Serial port not present: %s", device)
		item.Hint = "Reconnect the adapter or choose another port."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Serial port present: %s", device)
	return item
}

// checkHelperDir validates the directory that holds helper images.
func (c *Checker) checkHelperDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "helper_dir",
		Name: "Helper directory",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Helper directory is empty."
		item.Hint = "Set the directory containing the turbo loaders and the BASICODE companion program."
		return item
	}

	info, err := c.stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Helper directory does not exist: %s", dir)
		item.Hint = "Use the fix action to create it, then copy the helper images there."
	case err != nil:
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot access helper directory: %s", dir)
		item.Hint = "Check permissions for the helper directory."
	case !info.IsDir():
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Helper path is not a directory: %s", dir)
	default:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Helper directory found: %s", dir)
	}
	return item
}

// checkHelper reports a missing helper image. Turbo loaders only matter when
// turbo mode is on, so their absence is a warning otherwise.
func (c *Checker) checkHelper(dir string, helper domain.HelperImage, turbo bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "helper_" + helper.ID,
		Name: helper.Name,
	}

	path := filepath.Join(dir, helper.FileName)
	if _, err := c.stat(path); err != nil {
		item.Status = domain.DiagnosticStatusFail
		if helper.Raw && !turbo {
			item.Status = domain.DiagnosticStatusWarn
		}
		item.Message = fmt.Sprintf("Missing %s", helper.FileName)
		item.Hint = helper.Description
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found %s", path)
	return item
}

// checkHost reports the host platform for bug reports.
func (c *Checker) checkHost() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "host",
		Name: "Host",
	}
	desc, err := c.hostInfo()
	if err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Host information unavailable: %v", err)
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = desc
	return item
}

func describeHost() (string, error) {
	gi, err := goInfo.GetInfo()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s (%s, %d CPUs)", gi.OS, gi.Core, gi.Platform, gi.CPUs), nil
}
