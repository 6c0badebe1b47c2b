// Package hotkey delivers global push-to-talk key events. The combo is
// Ctrl+Shift+Space on every platform.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
