package gpio

import (
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// FakeSource is a test double that delivers scripted button events.
type FakeSource struct {
	events chan logic.ButtonEvent

	// Closed tracks if Close was called
	Closed bool

	// CloseError, if set, will be returned by Close()
	CloseError error
}

// NewFakeSource creates a FakeSource with room for EventBuffer pending events.
func NewFakeSource() *FakeSource {
	return &FakeSource{events: make(chan logic.ButtonEvent, EventBuffer)}
}

// Events returns the scripted event channel.
func (f *FakeSource) Events() <-chan logic.ButtonEvent {
	return f.events
}

// Send queues ev. It blocks if EventBuffer events are already pending.
func (f *FakeSource) Send(ev logic.ButtonEvent) {
	f.events <- ev
}

// Tap queues a tap of button b at t.
func (f *FakeSource) Tap(b logic.Button, t time.Time) {
	f.Send(logic.ButtonEvent{Button: b, Press: logic.PressTap, Time: t})
}

// Hold queues a hold of button b at t.
func (f *FakeSource) Hold(b logic.Button, t time.Time) {
	f.Send(logic.ButtonEvent{Button: b, Press: logic.PressHold, Time: t})
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return f.CloseError
}
