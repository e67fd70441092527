package domain

import "time"

// Timing is the tunable pacing bundle for keystroke injection and mode switches.
// Delay fields are milliseconds; fractional values are allowed.
type Timing struct {
	LineWidth          int     `json:"lineWidth" mapstructure:"line_width"`
	PromptWidth        int     `json:"promptWidth" mapstructure:"prompt_width"`
	VisibleLines       int     `json:"visibleLines" mapstructure:"visible_lines"`
	InitDelay          float64 `json:"initDelayMs" mapstructure:"init_delay_ms"`
	ClearScreenDelay   float64 `json:"clearScreenDelayMs" mapstructure:"clear_screen_delay_ms"`
	BasicEnterDelay    float64 `json:"basicEnterDelayMs" mapstructure:"basic_enter_delay_ms"`
	BasicReadyDelay    float64 `json:"basicReadyDelayMs" mapstructure:"basic_ready_delay_ms"`
	RebasicDelay       float64 `json:"rebasicDelayMs" mapstructure:"rebasic_delay_ms"`
	CharDelay          float64 `json:"charDelayMs" mapstructure:"char_delay_ms"`
	LineScrollDelay    float64 `json:"lineScrollDelayMs" mapstructure:"line_scroll_delay_ms"`
	ProcessDelay       float64 `json:"processDelayMs" mapstructure:"process_delay_ms"`
	StatementDelay     float64 `json:"statementDelayMs" mapstructure:"statement_delay_ms"`
	LineThrottle       float64 `json:"lineThrottleMs" mapstructure:"line_throttle_ms"`
	DimRefDelay        float64 `json:"dimRefDelayMs" mapstructure:"dim_ref_delay_ms"`
	DimUnitDelay       float64 `json:"dimUnitDelayMs" mapstructure:"dim_unit_delay_ms"`
	VarRefDelay        float64 `json:"varRefDelayMs" mapstructure:"var_ref_delay_ms"`
	ResetStepDelay     float64 `json:"resetStepDelayMs" mapstructure:"reset_step_delay_ms"`
	HeaderPause        float64 `json:"headerPauseMs" mapstructure:"header_pause_ms"`
	DimDefaultBound    int     `json:"dimDefaultBound" mapstructure:"dim_default_bound"`
	DimOptionBase      int     `json:"dimOptionBase" mapstructure:"dim_option_base"`
	MaxVariableLetters int     `json:"maxVariableLetters" mapstructure:"max_variable_letters"`
}

// DefaultTiming returns the empirically tuned values for a KC85/4 at 1200 baud.
func DefaultTiming() Timing {
	return Timing{
		LineWidth:          40,
		PromptWidth:        1,
		VisibleLines:       32,
		InitDelay:          300,
		ClearScreenDelay:   600,
		BasicEnterDelay:    700,
		BasicReadyDelay:    3800,
		RebasicDelay:       300,
		CharDelay:          0,
		LineScrollDelay:    300,
		ProcessDelay:       200,
		StatementDelay:     80,
		LineThrottle:       0.4,
		DimRefDelay:        40,
		DimUnitDelay:       0.2,
		VarRefDelay:        50,
		ResetStepDelay:     300,
		HeaderPause:        100,
		DimDefaultBound:    10,
		DimOptionBase:      0,
		MaxVariableLetters: 2,
	}
}

// Millis converts a fractional millisecond value into a duration.
func Millis(ms float64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
