package domain

import "time"

// Config mirrors ~/.typing-copilot/config.yaml.
type Config struct {
	ConfigFormatVersion string               `yaml:"config_format_version"`
	Service             ServiceSettings      `yaml:"service"`
	Hotkeys             HotkeySettings       `yaml:"hotkeys"`
	Instruct            InstructSettings     `yaml:"instruct"`
	Automation          AutomationSettings   `yaml:"automation"`
	History             HistorySettings      `yaml:"history"`
	Notifications       NotificationSettings `yaml:"notifications"`
	Metrics             MetricsSettings      `yaml:"metrics"`
	Log                 LogSettings          `yaml:"log"`
}

// ServiceSettings points at the local generation service.
type ServiceSettings struct {
	Host      string        `yaml:"host"`
	Model     string        `yaml:"model"`
	KeepAlive time.Duration `yaml:"keep_alive"`
	Timeout   time.Duration `yaml:"timeout"`
}

// HotkeySettings binds global key combinations to actions. Empty disables a binding.
type HotkeySettings struct {
	FixLine           string `yaml:"fix_line"`
	InstructLine      string `yaml:"instruct_line"`
	InstructSelection string `yaml:"instruct_selection"`
	NextModel         string `yaml:"next_model"`
}

// InstructSettings controls instruct mode application.
type InstructSettings struct {
	Streaming bool `yaml:"streaming"`
}

// AutomationSettings configures synthetic input timing and platform key table.
type AutomationSettings struct {
	Platform           string        `yaml:"platform"`
	SelectSettle       time.Duration `yaml:"select_settle"`
	CopySettle         time.Duration `yaml:"copy_settle"`
	InjectSettle       time.Duration `yaml:"inject_settle"`
	PasteSettle        time.Duration `yaml:"paste_settle"`
	FirstFragmentDelay time.Duration `yaml:"first_fragment_delay"`
	RestoreClipboard   bool          `yaml:"restore_clipboard"`
}

// HistorySettings configures correction history persistence.
type HistorySettings struct {
	Enabled       bool `yaml:"enabled"`
	StoreText     bool `yaml:"store_text"`
	RetentionDays int  `yaml:"retention_days"`
}

// NotificationSettings toggles desktop notifications.
type NotificationSettings struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsSettings exposes a Prometheus scrape endpoint when Listen is set.
type MetricsSettings struct {
	Listen string `yaml:"listen"`
}

// LogSettings configures the log file.
type LogSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}
