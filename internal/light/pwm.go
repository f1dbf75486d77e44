package light

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultPWMPin is the Raspberry Pi hardware PWM0 pin.
const DefaultPWMPin = "GPIO18"

// DefaultPWMFrequency is high enough to avoid visible flicker.
const DefaultPWMFrequency = 2 * physic.KiloHertz

var initOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// PWM dims a lamp through a hardware PWM pin.
type PWM struct {
	pin   gpio.PinIO
	freq  physic.Frequency
	level uint8
	set   bool
}

// NewPWM opens the named pin (e.g. "GPIO18") for PWM output.
func NewPWM(name string, freq physic.Frequency) (*PWM, error) {
	if err := initOnce(); err != nil {
		return nil, fmt.Errorf("init periph.io: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("pwm pin %q not found", name)
	}
	return &PWM{pin: pin, freq: freq}, nil
}

// Duty converts a brightness level to a PWM duty cycle.
func Duty(level uint8) gpio.Duty {
	return gpio.Duty(uint64(gpio.DutyMax) * uint64(level) / 255)
}

// SetBrightness sets the duty cycle. Level 0 drives the pin low.
func (p *PWM) SetBrightness(level uint8) error {
	if p.set && level == p.level {
		return nil
	}

	var err error
	if level == 0 {
		err = p.pin.Out(gpio.Low)
	} else {
		err = p.pin.PWM(Duty(level), p.freq)
	}
	if err != nil {
		return fmt.Errorf("set %s to %d: %w", p.pin, level, err)
	}

	p.level = level
	p.set = true
	return nil
}

// Close stops PWM output and leaves the pin low.
func (p *PWM) Close() error {
	if err := p.pin.Halt(); err != nil {
		return fmt.Errorf("halt %s: %w", p.pin, err)
	}
	return p.pin.Out(gpio.Low)
}
