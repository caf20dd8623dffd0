//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/doeshing/typecopilot/internal/domain"
)

var modifierCodes = map[domain.Modifier]hotkey.Modifier{
	domain.ModShift: hotkey.ModShift,
	domain.ModCtrl:  hotkey.ModCtrl,
	domain.ModAlt:   hotkey.ModOption,
	domain.ModSuper: hotkey.ModCmd,
}
