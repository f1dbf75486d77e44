// Package gpio turns front-panel button edges into tap and hold events.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Source produces classified button events.
type Source interface {
	// Events returns the channel classified button events are delivered on.
	Events() <-chan logic.ButtonEvent

	// Close releases GPIO resources and stops event delivery.
	Close() error
}

// Pins holds the BCM line offsets of the three buttons.
type Pins struct {
	Up   int
	Down int
	Mode int
}

// Pin definitions (BCM numbering)
const (
	PinUp        = 17
	PinDown      = 27
	PinMode      = 22
	PinStatusLED = 13
)

// DefaultPins returns the standard button wiring.
func DefaultPins() Pins {
	return Pins{Up: PinUp, Down: PinDown, Mode: PinMode}
}

// Defaults for the input layer.
const (
	DefaultHoldTime     = 600 * time.Millisecond
	DefaultDebounce     = 20 * time.Millisecond
	DefaultPollInterval = 25 * time.Millisecond
)

// EventBuffer is the capacity of a source's event channel.
const EventBuffer = 16
