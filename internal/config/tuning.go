package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kc-transfer/internal/domain"
)

// Tuning holds everything that is configured by file or environment rather
// than through the UI.
type Tuning struct {
	Log      LogConfig      `mapstructure:"log"`
	Timing   domain.Timing  `mapstructure:"timing"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs     []string       `mapstructure:"outputs"`
	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SerialConfig holds line speeds and the binary chunk size.
type SerialConfig struct {
	Baud      int `mapstructure:"baud"`
	TurboBaud int `mapstructure:"turbo_baud"`
	ChunkSize int `mapstructure:"chunk_size"`
}

// WatchdogConfig holds the transfer timeouts. Zero disables a timeout.
type WatchdogConfig struct {
	IdleTimeoutSec int `mapstructure:"idle_timeout_sec"`
	JobTimeoutSec  int `mapstructure:"job_timeout_sec"`
	PollIntervalMS int `mapstructure:"poll_interval_ms"`
}

// IdleTimeout is the longest a sending job may make no progress.
func (w WatchdogConfig) IdleTimeout() time.Duration {
	return time.Duration(w.IdleTimeoutSec) * time.Second
}

// JobTimeout is the longest a job without payload may run.
func (w WatchdogConfig) JobTimeout() time.Duration {
	return time.Duration(w.JobTimeoutSec) * time.Second
}

// PollInterval is the progress sampling period.
func (w WatchdogConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// DefaultTuning returns the built-in tunables.
func DefaultTuning() Tuning {
	return Tuning{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   filepath.Join(AppDir(), "logs", "kc-transfer.log"),
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		Timing: domain.DefaultTiming(),
		Serial: SerialConfig{
			Baud:      1200,
			TurboBaud: 2400,
			ChunkSize: 64,
		},
		Watchdog: WatchdogConfig{
			IdleTimeoutSec: 10,
			JobTimeoutSec:  10,
			PollIntervalMS: 100,
		},
	}
}

// LoadTuning reads tunables from path (if non-empty), otherwise it searches
// kc-transfer.yaml in the usual locations. Environment variables use the
// prefix KCTRANSFER, for example KCTRANSFER_TIMING_CHAR_DELAY_MS=5.
func LoadTuning(path string) (Tuning, error) {
	cfg := DefaultTuning()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KCTRANSFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	seedDefaults(v, cfg)

	if path == "" {
		path = os.Getenv("KCTRANSFER_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kc-transfer")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(AppDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Tuning{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Tuning{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Tuning{}, err
	}
	return cfg, nil
}

// seedDefaults registers every key so env-only overrides work.
func seedDefaults(v *viper.Viper, cfg Tuning) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	t := cfg.Timing
	v.SetDefault("timing.line_width", t.LineWidth)
	v.SetDefault("timing.prompt_width", t.PromptWidth)
	v.SetDefault("timing.visible_lines", t.VisibleLines)
	v.SetDefault("timing.init_delay_ms", t.InitDelay)
	v.SetDefault("timing.clear_screen_delay_ms", t.ClearScreenDelay)
	v.SetDefault("timing.basic_enter_delay_ms", t.BasicEnterDelay)
	v.SetDefault("timing.basic_ready_delay_ms", t.BasicReadyDelay)
	v.SetDefault("timing.rebasic_delay_ms", t.RebasicDelay)
	v.SetDefault("timing.char_delay_ms", t.CharDelay)
	v.SetDefault("timing.line_scroll_delay_ms", t.LineScrollDelay)
	v.SetDefault("timing.process_delay_ms", t.ProcessDelay)
	v.SetDefault("timing.statement_delay_ms", t.StatementDelay)
	v.SetDefault("timing.line_throttle_ms", t.LineThrottle)
	v.SetDefault("timing.dim_ref_delay_ms", t.DimRefDelay)
	v.SetDefault("timing.dim_unit_delay_ms", t.DimUnitDelay)
	v.SetDefault("timing.var_ref_delay_ms", t.VarRefDelay)
	v.SetDefault("timing.reset_step_delay_ms", t.ResetStepDelay)
	v.SetDefault("timing.header_pause_ms", t.HeaderPause)
	v.SetDefault("timing.dim_default_bound", t.DimDefaultBound)
	v.SetDefault("timing.dim_option_base", t.DimOptionBase)
	v.SetDefault("timing.max_variable_letters", t.MaxVariableLetters)

	v.SetDefault("serial.baud", cfg.Serial.Baud)
	v.SetDefault("serial.turbo_baud", cfg.Serial.TurboBaud)
	v.SetDefault("serial.chunk_size", cfg.Serial.ChunkSize)

	v.SetDefault("watchdog.idle_timeout_sec", cfg.Watchdog.IdleTimeoutSec)
	v.SetDefault("watchdog.job_timeout_sec", cfg.Watchdog.JobTimeoutSec)
	v.SetDefault("watchdog.poll_interval_ms", cfg.Watchdog.PollIntervalMS)
}

func (c *Tuning) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	t := c.Timing
	if t.PromptWidth < 0 || t.LineWidth <= t.PromptWidth {
		return fmt.Errorf("invalid timing.line_width %d for prompt width %d", t.LineWidth, t.PromptWidth)
	}
	if t.VisibleLines < 4 {
		return fmt.Errorf("invalid timing.visible_lines: %d", t.VisibleLines)
	}
	delays := map[string]float64{
		"init_delay_ms":         t.InitDelay,
		"clear_screen_delay_ms": t.ClearScreenDelay,
		"basic_enter_delay_ms":  t.BasicEnterDelay,
		"basic_ready_delay_ms":  t.BasicReadyDelay,
		"rebasic_delay_ms":      t.RebasicDelay,
		"char_delay_ms":         t.CharDelay,
		"line_scroll_delay_ms":  t.LineScrollDelay,
		"process_delay_ms":      t.ProcessDelay,
		"statement_delay_ms":    t.StatementDelay,
		"line_throttle_ms":      t.LineThrottle,
		"dim_ref_delay_ms":      t.DimRefDelay,
		"dim_unit_delay_ms":     t.DimUnitDelay,
		"var_ref_delay_ms":      t.VarRefDelay,
		"reset_step_delay_ms":   t.ResetStepDelay,
		"header_pause_ms":       t.HeaderPause,
	}
	for key, value := range delays {
		if value < 0 {
			return fmt.Errorf("invalid timing.%s: %v", key, value)
		}
	}
	if t.DimOptionBase != 0 && t.DimOptionBase != 1 {
		return fmt.Errorf("invalid timing.dim_option_base: %d", t.DimOptionBase)
	}

	if c.Serial.Baud <= 0 || c.Serial.TurboBaud <= 0 {
		return fmt.Errorf("invalid serial baud rates %d/%d", c.Serial.Baud, c.Serial.TurboBaud)
	}
	if c.Serial.ChunkSize <= 0 {
		return fmt.Errorf("invalid serial.chunk_size: %d", c.Serial.ChunkSize)
	}
	if c.Watchdog.IdleTimeoutSec < 0 || c.Watchdog.JobTimeoutSec < 0 {
		return fmt.Errorf("watchdog timeouts must not be negative")
	}
	if c.Watchdog.PollIntervalMS <= 0 {
		c.Watchdog.PollIntervalMS = 100
	}
	return nil
}
