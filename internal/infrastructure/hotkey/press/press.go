// Package press pairs key-down and key-up events into completed presses.
package press

import "context"

// Loop calls fire once for every key-up that follows a key-down, until ctx is
// done or either channel closes. A key-up with no preceding key-down is ignored.
//
// fire runs on release so that modifiers held for the binding are no longer
// down when synthetic keys are sent.
func Loop[E any](ctx context.Context, down, up <-chan E, fire func()) {
	pressed := false
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-down:
			if !ok {
				return
			}
			pressed = true
		case _, ok := <-up:
			if !ok {
				return
			}
			if pressed {
				pressed = false
				fire()
			}
		}
	}
}
