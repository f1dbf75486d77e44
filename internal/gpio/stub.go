//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns an error on non-Linux platforms.
func NewRealSource(pins Pins, debounce, holdTime time.Duration) (*RealSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Events returns a nil channel on non-Linux platforms.
func (s *RealSource) Events() <-chan logic.ButtonEvent {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
