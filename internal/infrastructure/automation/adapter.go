// Package automation captures text from and injects text into whatever application
// has keyboard focus, using synthetic key events and the system clipboard.
package automation

import (
	"fmt"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// Delays are the settle pauses after each synthetic gesture. Key delivery and
// selection state are not synchronously observable, so every dependent step waits.
type Delays struct {
	Select time.Duration // after select-to-line-start
	Copy   time.Duration // after the copy shortcut, before reading the clipboard
	Inject time.Duration // after writing the clipboard, before the paste shortcut
	Paste  time.Duration // after the paste shortcut
}

// DelaysFromConfig reads the settle delays from the automation settings.
func DelaysFromConfig(s domain.AutomationSettings) Delays {
	return Delays{
		Select: s.SelectSettle,
		Copy:   s.CopySettle,
		Inject: s.InjectSettle,
		Paste:  s.PasteSettle,
	}
}

// Adapter implements ports.Automation. One instance is shared by every correction.
type Adapter struct {
	keyboard  ports.Keyboard
	clipboard ports.Clipboard
	keys      domain.KeyTable
	delays    Delays

	// Sleep defaults to time.Sleep; tests replace it.
	Sleep func(time.Duration)
}

// NewAdapter wires an adapter around the given drivers and key table.
func NewAdapter(keyboard ports.Keyboard, clipboard ports.Clipboard, keys domain.KeyTable, delays Delays) *Adapter {
	return &Adapter{
		keyboard:  keyboard,
		clipboard: clipboard,
		keys:      keys,
		delays:    delays,
		Sleep:     time.Sleep,
	}
}

// Keys returns the resolved key table.
func (a *Adapter) Keys() domain.KeyTable {
	return a.keys
}

// SelectCurrentLine extends the selection from the cursor to the start of the line.
func (a *Adapter) SelectCurrentLine() error {
	if err := a.keyboard.Tap(a.keys.SelectLine); err != nil {
		return fmt.Errorf("tap %s: %w", a.keys.SelectLine, err)
	}
	a.settle(a.delays.Select)
	return nil
}

// CopySelection copies the current selection and returns it. The clipboard is
// emptied first, so an application that ignores the copy gesture yields "".
func (a *Adapter) CopySelection() (string, error) {
	if err := a.clipboard.Clear(); err != nil {
		return "", fmt.Errorf("clear clipboard: %w", err)
	}
	if err := a.keyboard.Tap(a.keys.Copy); err != nil {
		return "", fmt.Errorf("tap %s: %w", a.keys.Copy, err)
	}
	a.settle(a.delays.Copy)

	text, err := a.clipboard.Read()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// Inject writes text to the clipboard and pastes it at the caret.
func (a *Adapter) Inject(text string) error {
	if err := a.clipboard.Write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	a.settle(a.delays.Inject)
	if err := a.keyboard.Tap(a.keys.Paste); err != nil {
		return fmt.Errorf("tap %s: %w", a.keys.Paste, err)
	}
	a.settle(a.delays.Paste)
	return nil
}

// PreserveClipboard snapshots the clipboard. The returned func writes the snapshot
// back; if the snapshot could not be taken it does nothing.
func (a *Adapter) PreserveClipboard() func() {
	saved, err := a.clipboard.Read()
	if err != nil {
		return func() {}
	}
	return func() {
		_ = a.clipboard.Write(saved)
	}
}

func (a *Adapter) settle(d time.Duration) {
	if d <= 0 {
		return
	}
	if a.Sleep == nil {
		time.Sleep(d)
		return
	}
	a.Sleep(d)
}

var _ ports.Automation = (*Adapter)(nil)
