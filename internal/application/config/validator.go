package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateService(cfg.Service); err != nil {
		return err
	}
	if err := validateAutomation(cfg.Automation); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if !logLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level must be debug|info|warn|error, got %s", cfg.Log.Level)
	}
	return cfg.ValidateConsistency()
}

func validateService(svc domain.ServiceSettings) error {
	if strings.TrimSpace(svc.Model) == "" {
		return fmt.Errorf("service.model must be set")
	}
	u, err := url.Parse(svc.Host)
	if err != nil {
		return fmt.Errorf("service.host invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.host must be an http(s) URL, got %s", svc.Host)
	}
	if svc.KeepAlive < 0 {
		return fmt.Errorf("service.keep_alive must be >= 0")
	}
	if svc.Timeout < 0 {
		return fmt.Errorf("service.timeout must be >= 0")
	}
	return nil
}

func validateAutomation(a domain.AutomationSettings) error {
	switch strings.ToLower(a.Platform) {
	case "", "auto", string(domain.PlatformMac), string(domain.PlatformPC):
	default:
		return fmt.Errorf("automation.platform must be auto|mac|pc, got %s", a.Platform)
	}
	delays := []struct {
		name  string
		value time.Duration
	}{
		{"select_settle", a.SelectSettle},
		{"copy_settle", a.CopySettle},
		{"inject_settle", a.InjectSettle},
		{"paste_settle", a.PasteSettle},
		{"first_fragment_delay", a.FirstFragmentDelay},
	}
	for _, d := range delays {
		if d.value < 0 {
			return fmt.Errorf("automation.%s must be >= 0", d.name)
		}
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0")
	}
	return nil
}
