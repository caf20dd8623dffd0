package domain

import (
	"fmt"
	"strings"
)

// Binding pairs an action with the key combination string that triggers it.
type Binding struct {
	Action Action
	Keys   string
}

// Bindings returns the enabled hotkey bindings in a stable order.
func (c *Config) Bindings() []Binding {
	all := []Binding{
		{Action: ActionFixLine, Keys: c.Hotkeys.FixLine},
		{Action: ActionInstructLine, Keys: c.Hotkeys.InstructLine},
		{Action: ActionInstructSelection, Keys: c.Hotkeys.InstructSelection},
		{Action: ActionNextModel, Keys: c.Hotkeys.NextModel},
	}
	var enabled []Binding
	for _, b := range all {
		if strings.TrimSpace(b.Keys) != "" {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// SetModel changes the configured default model.
func (c *Config) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	c.Service.Model = name
	return nil
}

// GetHistoryRetentionDays returns the number of days to retain history
func (c *Config) GetHistoryRetentionDays() int {
	if c.History.RetentionDays <= 0 {
		return DefaultHistoryRetainDays
	}
	return c.History.RetentionDays
}

// IsHistoryEnabled checks if corrections are recorded
func (c *Config) IsHistoryEnabled() bool {
	return c.History.Enabled
}

// AreNotificationsEnabled checks if desktop notifications are shown
func (c *Config) AreNotificationsEnabled() bool {
	return c.Notifications.Enabled
}

// GetKeepAlive returns how long the service should keep the model loaded
func (c *Config) GetKeepAlive() string {
	if c.Service.KeepAlive < 0 {
		return DefaultKeepAlive.String()
	}
	if c.Service.KeepAlive == 0 {
		return "0s (unload after each request)"
	}
	return c.Service.KeepAlive.String()
}

// ValidateConsistency checks the internal consistency of the configuration
func (c *Config) ValidateConsistency() error {
	if strings.TrimSpace(c.Service.Model) == "" {
		return fmt.Errorf("service.model must be set")
	}
	seen := make(map[string]Action)
	for _, b := range c.Bindings() {
		hk, err := ParseHotkey(b.Keys)
		if err != nil {
			return fmt.Errorf("hotkeys.%s: %w", b.Action, err)
		}
		key := hk.canonical()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("hotkey %q bound to both %s and %s", b.Keys, prev, b.Action)
		}
		seen[key] = b.Action
	}
	return nil
}
