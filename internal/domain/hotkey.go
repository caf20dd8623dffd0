package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Hotkey is a parsed global key binding such as "ctrl+shift+f9".
type Hotkey struct {
	Modifiers []Modifier
	Key       string
}

func (h Hotkey) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, h.Key), "+")
}

// canonical orders modifiers so equivalent bindings compare equal.
func (h Hotkey) canonical() string {
	mods := slices.Clone(h.Modifiers)
	slices.Sort(mods)
	return Hotkey{Modifiers: mods, Key: h.Key}.String()
}

var modifierAliases = map[string]Modifier{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"win":     ModSuper,
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"del":    "delete",
}

// HotkeyKeys is the set of key names a binding may end in.
var HotkeyKeys = func() map[string]bool {
	keys := map[string]bool{
		"space": true, "enter": true, "escape": true, "tab": true, "delete": true,
		"left": true, "right": true, "up": true, "down": true,
	}
	for c := 'a'; c <= 'z'; c++ {
		keys[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		keys[string(c)] = true
	}
	for i := 1; i <= 20; i++ {
		keys[fmt.Sprintf("f%d", i)] = true
	}
	return keys
}()

// ParseHotkey parses a "+"-separated binding: any modifiers followed by exactly one key.
func ParseHotkey(raw string) (Hotkey, error) {
	normalized := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if normalized == "" {
		return Hotkey{}, fmt.Errorf("empty hotkey")
	}
	parts := strings.Split(normalized, "+")

	var hk Hotkey
	seen := make(map[Modifier]bool)
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierAliases[part]
		if !ok {
			return Hotkey{}, fmt.Errorf("hotkey %q: unknown modifier %q", raw, part)
		}
		if seen[mod] {
			return Hotkey{}, fmt.Errorf("hotkey %q: modifier %q repeated", raw, part)
		}
		seen[mod] = true
		hk.Modifiers = append(hk.Modifiers, mod)
	}

	key := parts[len(parts)-1]
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if !HotkeyKeys[key] {
		return Hotkey{}, fmt.Errorf("hotkey %q: unknown key %q", raw, key)
	}
	hk.Key = key
	return hk, nil
}
