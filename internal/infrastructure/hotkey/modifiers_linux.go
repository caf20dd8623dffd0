//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/doeshing/typecopilot/internal/domain"
)

// X11 maps Alt to Mod1 and Super to Mod4 on every common keyboard layout.
var modifierCodes = map[domain.Modifier]hotkey.Modifier{
	domain.ModShift: hotkey.ModShift,
	domain.ModCtrl:  hotkey.ModCtrl,
	domain.ModAlt:   hotkey.Mod1,
	domain.ModSuper: hotkey.Mod4,
}
