package config

import (
	"os"
	"path/filepath"

	"kc-transfer/internal/domain"
)

// appDirName is the per-user directory for settings, logs and helper images.
const appDirName = ".kc-transfer"

// AppDir returns the per-user application directory.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName)
}

// DefaultSettingsPath returns where the JSON settings file lives.
func DefaultSettingsPath() string {
	return filepath.Join(AppDir(), "settings.json")
}

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		HelperDir:    filepath.Join(AppDir(), "helpers"),
		ConfirmReset: true,
	}
}
