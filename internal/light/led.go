//go:build linux

package light

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// StatusLED is a single GPIO output line.
type StatusLED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	on   bool
}

// NewStatusLED requests pin as an output, initially off.
func NewStatusLED(pin int) (*StatusLED, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}

	return &StatusLED{chip: chip, line: line}, nil
}

// SetBrightness turns the LED on for any non-zero level.
func (l *StatusLED) SetBrightness(level uint8) error {
	on := level > 0
	if on == l.on {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set LED: %w", err)
	}
	l.on = on
	return nil
}

// Close turns the LED off and releases the line.
func (l *StatusLED) Close() error {
	var errs []error
	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED: %w", err))
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
