// Package notify shows desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/doeshing/typecopilot/internal/ports"
)

// DefaultTitle is used when a notification has no title of its own.
const DefaultTitle = "Typing Copilot"

// Desktop implements ports.Notifier with the OS notification center.
type Desktop struct {
	// send defaults to beeep.Notify.
	send func(title, message string, icon any) error
}

// NewDesktop builds a desktop notifier.
func NewDesktop() *Desktop {
	return &Desktop{send: beeep.Notify}
}

func (d *Desktop) Notify(message, title string) error {
	if title == "" {
		title = DefaultTitle
	}
	return d.send(title, message, "")
}

// Discard drops every notification. Used when notifications are disabled.
type Discard struct{}

func (Discard) Notify(string, string) error { return nil }

// New returns a desktop notifier when enabled is true and Discard otherwise.
func New(enabled bool) ports.Notifier {
	if !enabled {
		return Discard{}
	}
	return NewDesktop()
}

var (
	_ ports.Notifier = (*Desktop)(nil)
	_ ports.Notifier = Discard{}
)
