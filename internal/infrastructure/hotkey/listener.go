// Package hotkey registers global key bindings and turns key presses into actions.
//
// On macOS the bindings must be registered from the main thread, so the binary's
// main function wraps everything in mainthread.Init.
package hotkey

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/hotkey/press"
	"github.com/doeshing/typecopilot/internal/ports"
)

// Listener owns the registered global bindings.
type Listener struct {
	logger ports.Logger
}

// NewListener builds a listener.
func NewListener(logger ports.Logger) *Listener {
	return &Listener{logger: logger}
}

type registration struct {
	binding domain.Binding
	hk      *hotkey.Hotkey
}

// Listen registers every binding and dispatches presses to handle until ctx is done.
// A press is dispatched when the binding is released, not when it goes down.
// Each press runs handle on its own goroutine, so a slow correction never blocks
// delivery of the next press.
// If any binding fails to register, the ones already registered are released and
// the error is returned.
func (l *Listener) Listen(ctx context.Context, bindings []domain.Binding, handle func(domain.Action)) error {
	if len(bindings) == 0 {
		return fmt.Errorf("no hotkeys configured")
	}

	regs := make([]registration, 0, len(bindings))
	defer func() {
		for _, r := range regs {
			if err := r.hk.Unregister(); err != nil {
				l.logger.Warn("hotkey unregister failed", map[string]interface{}{"keys": r.binding.Keys, "error": err.Error()})
			}
		}
	}()

	for _, b := range bindings {
		hk, err := newHotkey(b.Keys)
		if err != nil {
			return fmt.Errorf("hotkeys.%s: %w", b.Action, err)
		}
		if err := hk.Register(); err != nil {
			return fmt.Errorf("register %s (%s): %w", b.Keys, b.Action, err)
		}
		regs = append(regs, registration{binding: b, hk: hk})
		l.logger.Info("hotkey registered", map[string]interface{}{"keys": b.Keys, "action": b.Action})
	}

	var wg sync.WaitGroup
	for _, r := range regs {
		wg.Add(1)
		go func(r registration) {
			defer wg.Done()
			press.Loop(ctx, r.hk.Keydown(), r.hk.Keyup(), func() {
				l.logger.Debug("hotkey released", map[string]interface{}{"keys": r.binding.Keys, "action": r.binding.Action})
				go handle(r.binding.Action)
			})
		}(r)
	}
	wg.Wait()
	return ctx.Err()
}

func newHotkey(raw string) (*hotkey.Hotkey, error) {
	parsed, err := domain.ParseHotkey(raw)
	if err != nil {
		return nil, err
	}
	key, ok := keyCodes[parsed.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", parsed.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(parsed.Modifiers))
	for _, m := range parsed.Modifiers {
		mod, ok := modifierCodes[m]
		if !ok {
			return nil, fmt.Errorf("modifier %q not supported on this platform", m)
		}
		mods = append(mods, mod)
	}
	return hotkey.New(mods, key), nil
}

var _ ports.HotkeyListener = (*Listener)(nil)
