package automation

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/doeshing/typecopilot/internal/ports"
)

// SystemClipboard implements ports.Clipboard on the OS clipboard. On Linux it
// needs xclip, xsel or wl-clipboard on PATH.
type SystemClipboard struct{}

// NewSystemClipboard builds the clipboard driver.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Enabled reports whether a clipboard backend was found.
func (c *SystemClipboard) Enabled() bool {
	return !clipboard.Unsupported
}

func (c *SystemClipboard) Read() (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("clipboard utilities not found")
	}
	return clipboard.ReadAll()
}

func (c *SystemClipboard) Write(text string) error {
	if !c.Enabled() {
		return fmt.Errorf("clipboard utilities not found")
	}
	return clipboard.WriteAll(text)
}

func (c *SystemClipboard) Clear() error {
	return c.Write("")
}

var _ ports.Clipboard = (*SystemClipboard)(nil)
