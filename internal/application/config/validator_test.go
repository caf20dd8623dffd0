package config

import (
	"strings"
	"testing"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
)

func baseConfig() domain.Config {
	return domain.Config{
		Service: domain.ServiceSettings{Host: "http://localhost:11434", Model: "qwen2.5:1.5b", KeepAlive: 5 * time.Minute},
		Hotkeys: domain.HotkeySettings{FixLine: "f9", InstructLine: "f10", InstructSelection: "f11"},
		Automation: domain.AutomationSettings{
			Platform:     "auto",
			SelectSettle: 100 * time.Millisecond,
			PasteSettle:  10 * time.Millisecond,
		},
		History: domain.HistorySettings{Enabled: true, RetentionDays: 30},
		Log:     domain.LogSettings{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "empty model", mutate: func(c *domain.Config) { c.Service.Model = " " }, wantErr: "service.model"},
		{name: "bad host scheme", mutate: func(c *domain.Config) { c.Service.Host = "localhost:11434" }, wantErr: "service.host"},
		{name: "unparsable host", mutate: func(c *domain.Config) { c.Service.Host = "http://[::1" }, wantErr: "service.host"},
		{name: "negative timeout", mutate: func(c *domain.Config) { c.Service.Timeout = -time.Second }, wantErr: "service.timeout"},
		{name: "negative settle", mutate: func(c *domain.Config) { c.Automation.CopySettle = -time.Millisecond }, wantErr: "copy_settle"},
		{name: "unknown platform", mutate: func(c *domain.Config) { c.Automation.Platform = "beos" }, wantErr: "automation.platform"},
		{name: "negative retention", mutate: func(c *domain.Config) { c.History.RetentionDays = -1 }, wantErr: "retention_days"},
		{name: "unknown log level", mutate: func(c *domain.Config) { c.Log.Level = "chatty" }, wantErr: "log.level"},
		{name: "duplicate hotkey", mutate: func(c *domain.Config) { c.Hotkeys.InstructSelection = "f9" }, wantErr: "bound to both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
