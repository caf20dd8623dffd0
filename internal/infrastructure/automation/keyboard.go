package automation

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// uinputWarmup is how long the Linux virtual keyboard needs before its events
// are delivered.
const uinputWarmup = 2 * time.Second

// KeybdKeyboard implements ports.Keyboard with a single process-wide virtual
// keyboard. On Linux it requires write access to /dev/uinput.
type KeybdKeyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewKeybdKeyboard creates the virtual keyboard. Create it once and reuse it.
func NewKeybdKeyboard() (*KeybdKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	if runtime.GOOS == "linux" {
		time.Sleep(uinputWarmup)
	}
	return &KeybdKeyboard{kb: kb}, nil
}

// Tap presses and releases combo.
func (k *KeybdKeyboard) Tap(combo domain.KeyCombo) error {
	code, ok := virtualKey(combo.Key)
	if !ok {
		return fmt.Errorf("no virtual key for %q", combo.Key)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.kb.Clear()
	k.kb.HasSHIFT(false)
	k.kb.HasCTRL(false)
	k.kb.HasALT(false)
	k.kb.HasSuper(false)
	for _, m := range combo.Modifiers {
		switch m {
		case domain.ModShift:
			k.kb.HasSHIFT(true)
		case domain.ModCtrl:
			k.kb.HasCTRL(true)
		case domain.ModAlt:
			k.kb.HasALT(true)
		case domain.ModSuper:
			k.kb.HasSuper(true)
		default:
			return fmt.Errorf("unknown modifier %q", m)
		}
	}
	k.kb.SetKeys(code)
	return k.kb.Launching()
}

func virtualKey(key domain.Key) (int, bool) {
	switch key {
	case domain.KeyC:
		return keybd_event.VK_C, true
	case domain.KeyV:
		return keybd_event.VK_V, true
	case domain.KeyHome:
		return keybd_event.VK_HOME, true
	case domain.KeyLeft:
		return keybd_event.VK_LEFT, true
	default:
		return 0, false
	}
}

var _ ports.Keyboard = (*KeybdKeyboard)(nil)
