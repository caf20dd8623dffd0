package domain

import "strings"

// Key is a logical key the automation layer knows how to emit.
type Key string

const (
	KeyC    Key = "c"
	KeyV    Key = "v"
	KeyHome Key = "home"
	KeyLeft Key = "left"
)

// Modifier is a logical modifier key.
type Modifier string

const (
	ModShift Modifier = "shift"
	ModCtrl  Modifier = "ctrl"
	ModAlt   Modifier = "alt"
	// ModSuper is Command on macOS and the Windows/Super key elsewhere.
	ModSuper Modifier = "super"
)

// KeyCombo is a key tapped while the modifiers are held.
type KeyCombo struct {
	Modifiers []Modifier
	Key       Key
}

func (k KeyCombo) String() string {
	parts := make([]string, 0, len(k.Modifiers)+1)
	for _, m := range k.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(k.Key))
	return strings.Join(parts, "+")
}

// Platform names a key table family.
type Platform string

const (
	// PlatformMac uses Command shortcuts and Command+Shift+Left to select to line start.
	PlatformMac Platform = "mac"
	// PlatformPC uses Control shortcuts and Shift+Home to select to line start.
	PlatformPC Platform = "pc"
)

// KeyTable holds the key combinations for one platform, resolved once at startup.
type KeyTable struct {
	Platform   Platform
	SelectLine KeyCombo
	Copy       KeyCombo
	Paste      KeyCombo
}
