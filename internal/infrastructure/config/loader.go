package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/typecopilot/assets"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/pkg/filesystem"
	"github.com/doeshing/typecopilot/internal/ports"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "TYPING_COPILOT_CONFIG"

// FileLoader loads YAML configuration from ~/.typing-copilot/config.yaml
// (overridable via TYPING_COPILOT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path uses the environment or the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the embedded default.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = assets.DefaultConfigYAML
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save implements ports.ConfigSaver.
func (l *FileLoader) Save(_ context.Context, cfg domain.Config) error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Backup copies the current file next to itself with a .bak suffix.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	dest := path + ".bak"
	if err := os.WriteFile(dest, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return dest, nil
}

// Reset overwrites the file with the embedded default and returns it parsed.
func (l *FileLoader) Reset() (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
		return domain.Config{}, err
	}
	return Parse(assets.DefaultConfigYAML)
}

// Path returns the configuration file in use.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// Parse decodes YAML over the built-in defaults, so keys absent from the file keep
// their default values while keys present (even empty ones) win.
func Parse(data []byte) (domain.Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

// Default returns the built-in default configuration.
func Default() domain.Config {
	return hydrateDefaults(defaultConfig())
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func defaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Service: domain.ServiceSettings{
			Host:      domain.DefaultServiceHost,
			Model:     domain.DefaultModel,
			KeepAlive: domain.DefaultKeepAlive,
		},
		Hotkeys: domain.HotkeySettings{
			FixLine:           "f9",
			InstructLine:      "f10",
			InstructSelection: "f11",
		},
		Automation: domain.AutomationSettings{
			Platform:           "auto",
			SelectSettle:       domain.DefaultSelectSettle,
			CopySettle:         domain.DefaultCopySettle,
			InjectSettle:       domain.DefaultInjectSettle,
			PasteSettle:        domain.DefaultPasteSettle,
			FirstFragmentDelay: domain.DefaultFirstFragmentDelay,
		},
		History: domain.HistorySettings{
			Enabled:       true,
			RetentionDays: domain.DefaultHistoryRetainDays,
		},
		Notifications: domain.NotificationSettings{Enabled: true},
		Log: domain.LogSettings{
			Level: "info",
			File:  filepath.Join(filesystem.AppDir(), "typing_copilot.log"),
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if strings.TrimSpace(cfg.Service.Host) == "" {
		cfg.Service.Host = domain.DefaultServiceHost
	}
	if strings.TrimSpace(cfg.Service.Model) == "" {
		cfg.Service.Model = domain.DefaultModel
	}
	if cfg.Automation.Platform == "" {
		cfg.Automation.Platform = "auto"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(filesystem.AppDir(), "typing_copilot.log")
	}
	cfg.Log.File = expandPath(cfg.Log.File)
	return cfg
}

func expandPath(path string) string {
	path = filesystem.ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}

var (
	_ ports.ConfigProvider = (*FileLoader)(nil)
	_ ports.ConfigSaver    = (*FileLoader)(nil)
)
