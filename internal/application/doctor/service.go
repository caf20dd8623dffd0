// Package doctor runs environment diagnostics for the daemon.
package doctor

import (
	"context"
	"fmt"
	"slices"

	appconfig "github.com/doeshing/typecopilot/internal/application/config"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	// Probe and Models are nil when the generation client could not be built.
	Probe     ports.ServiceProbe
	Models    ports.ModelLister
	Clipboard ports.Clipboard
	// KeyTable resolves the automation platform name to its key table.
	KeyTable func(platform string) (domain.KeyTable, error)
}

// Run executes checks and returns a report. The error is non-nil only when the
// configuration cannot be loaded, since nothing else can be checked without it.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config values", err.Error()))
	} else {
		checks = append(checks, ok("Config values", "valid"))
	}

	ctx, cancel := context.WithTimeout(ctx, domain.DefaultModelTestTimeout)
	defer cancel()
	checks = append(checks, s.serviceChecks(ctx, cfg)...)
	checks = append(checks, s.keyTableCheck(cfg))
	checks = append(checks, hotkeyChecks(cfg)...)
	checks = append(checks, s.clipboardCheck())

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) serviceChecks(ctx context.Context, cfg domain.Config) []domain.HealthCheck {
	if s.Probe == nil {
		return []domain.HealthCheck{fail("Generation service", "client not initialized")}
	}
	if err := s.Probe.Heartbeat(ctx); err != nil {
		return []domain.HealthCheck{fail("Generation service", fmt.Sprintf("%s: %v", cfg.Service.Host, err))}
	}
	details := cfg.Service.Host
	if version, err := s.Probe.Version(ctx); err == nil && version != "" {
		details = fmt.Sprintf("%s (version %s)", cfg.Service.Host, version)
	}
	checks := []domain.HealthCheck{ok("Generation service", details)}

	if s.Models == nil {
		return checks
	}
	models, err := s.Models.ListModels(ctx)
	switch {
	case err != nil:
		checks = append(checks, warn("Model", fmt.Sprintf("cannot list models: %v", err)))
	case slices.Contains(models, cfg.Service.Model):
		checks = append(checks, ok("Model", fmt.Sprintf("%s installed, keep-alive %s", cfg.Service.Model, cfg.GetKeepAlive())))
	default:
		checks = append(checks, fail("Model", fmt.Sprintf("%s not installed (run: ollama pull %s)", cfg.Service.Model, cfg.Service.Model)))
	}
	return checks
}

func (s *Service) keyTableCheck(cfg domain.Config) domain.HealthCheck {
	if s.KeyTable == nil {
		return warn("Key table", "not checked")
	}
	table, err := s.KeyTable(cfg.Automation.Platform)
	if err != nil {
		return fail("Key table", err.Error())
	}
	return ok("Key table", fmt.Sprintf("%s: select %s, copy %s, paste %s", table.Platform, table.SelectLine, table.Copy, table.Paste))
}

func hotkeyChecks(cfg domain.Config) []domain.HealthCheck {
	bindings := cfg.Bindings()
	if len(bindings) == 0 {
		return []domain.HealthCheck{warn("Hotkeys", "no bindings configured; use `typecopilot trigger`")}
	}
	var checks []domain.HealthCheck
	for _, b := range bindings {
		name := fmt.Sprintf("Hotkey %s", b.Action)
		if hk, err := domain.ParseHotkey(b.Keys); err != nil {
			checks = append(checks, fail(name, err.Error()))
		} else {
			checks = append(checks, ok(name, hk.String()))
		}
	}
	return checks
}

func (s *Service) clipboardCheck() domain.HealthCheck {
	if s.Clipboard == nil {
		return warn("Clipboard", "not checked")
	}
	if _, err := s.Clipboard.Read(); err != nil {
		return fail("Clipboard", err.Error())
	}
	return ok("Clipboard", "readable")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthFail, Details: details}
}
