//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// RealSource reads the buttons from actual hardware using the Linux GPIO
// character device. Buttons are wired active-low to ground with the internal
// pull-up enabled.
type RealSource struct {
	chip       *gpiocdev.Chip
	lines      []*gpiocdev.Line
	classifier *Classifier
	events     chan logic.ButtonEvent
	stop       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewRealSource requests the three button lines and starts hold polling.
func NewRealSource(pins Pins, debounce, holdTime time.Duration) (*RealSource, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSource{
		chip:       chip,
		classifier: NewClassifier(holdTime),
		events:     make(chan logic.ButtonEvent, EventBuffer),
		stop:       make(chan struct{}),
	}

	for _, btn := range []struct {
		button logic.Button
		pin    int
	}{
		{logic.ButtonUp, pins.Up},
		{logic.ButtonDown, pins.Down},
		{logic.ButtonMode, pins.Mode},
	} {
		button := btn.button
		line, err := chip.RequestLine(btn.pin,
			gpiocdev.AsInput,
			gpiocdev.AsActiveLow,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(debounce),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				// Active-low: rising edge is the logical press.
				pressed := evt.Type == gpiocdev.LineEventRisingEdge
				s.deliver(s.classifier.Edge(button, pressed, time.Now()))
			}),
		)
		if err != nil {
			s.release()
			return nil, fmt.Errorf("request %s pin %d: %w", button, btn.pin, err)
		}
		s.lines = append(s.lines, line)
	}

	s.wg.Add(1)
	go s.poll(DefaultPollInterval)

	return s, nil
}

// Events returns the channel classified button events are delivered on.
func (s *RealSource) Events() <-chan logic.ButtonEvent {
	return s.events
}

func (s *RealSource) poll(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.deliver(s.classifier.Poll(now))
		}
	}
}

func (s *RealSource) deliver(events []logic.ButtonEvent) {
	for _, ev := range events {
		select {
		case s.events <- ev:
		default:
			log.Printf("gpio: event channel full, dropping %s %s", ev.Button, ev.Press)
		}
	}
}

// Close stops polling and releases GPIO resources.
// Lines are reconfigured to plain inputs before closing so the pins are left
// in a safe state for shutdown and reboot.
func (s *RealSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		err = s.release()
	})
	return err
}

func (s *RealSource) release() error {
	var errs []error

	for _, line := range s.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	s.lines = nil
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
