// Package light drives the status LED and the sunrise lamp.
package light

// Light is an output with 256 brightness levels. Binary outputs treat any
// non-zero level as on.
type Light interface {
	SetBrightness(level uint8) error
	Close() error
}

// Nop is a light that is not fitted.
type Nop struct{}

// SetBrightness does nothing.
func (Nop) SetBrightness(level uint8) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
