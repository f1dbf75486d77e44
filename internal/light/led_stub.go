//go:build !linux

package light

import "errors"

// StatusLED is not available on non-Linux platforms.
type StatusLED struct{}

// NewStatusLED returns an error on non-Linux platforms.
func NewStatusLED(pin int) (*StatusLED, error) {
	return nil, errors.New("light: gpio not supported on this platform (requires Linux)")
}

// SetBrightness is not implemented on non-Linux platforms.
func (l *StatusLED) SetBrightness(level uint8) error {
	return errors.New("light: not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *StatusLED) Close() error {
	return nil
}
