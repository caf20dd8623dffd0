package automation

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/doeshing/typecopilot/internal/domain"
)

// PlatformAuto resolves the key table from the running operating system.
const PlatformAuto = "auto"

var keyTables = map[domain.Platform]domain.KeyTable{
	domain.PlatformMac: {
		Platform:   domain.PlatformMac,
		SelectLine: domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModShift, domain.ModSuper}, Key: domain.KeyLeft},
		Copy:       domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModSuper}, Key: domain.KeyC},
		Paste:      domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModSuper}, Key: domain.KeyV},
	},
	domain.PlatformPC: {
		Platform:   domain.PlatformPC,
		SelectLine: domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModShift}, Key: domain.KeyHome},
		Copy:       domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModCtrl}, Key: domain.KeyC},
		Paste:      domain.KeyCombo{Modifiers: []domain.Modifier{domain.ModCtrl}, Key: domain.KeyV},
	},
}

// DetectPlatform maps a GOOS value to its key table family.
func DetectPlatform(goos string) domain.Platform {
	if goos == "darwin" {
		return domain.PlatformMac
	}
	return domain.PlatformPC
}

// TableFor returns the key table for the configured platform name. An empty name
// or "auto" detects the platform from the running OS.
func TableFor(name string) (domain.KeyTable, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	platform := domain.Platform(name)
	if name == "" || name == PlatformAuto {
		platform = DetectPlatform(runtime.GOOS)
	}
	table, ok := keyTables[platform]
	if !ok {
		return domain.KeyTable{}, fmt.Errorf("unknown automation platform %q (want auto, mac or pc)", name)
	}
	return table, nil
}
