package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// buttonOrder fixes the order in which simultaneous holds are reported.
var buttonOrder = []logic.Button{logic.ButtonUp, logic.ButtonDown, logic.ButtonMode}

type buttonState struct {
	pressed  bool
	held     bool
	nextHold time.Time
}

// Classifier turns debounced press and release edges into tap and hold events.
//
// A release before the hold threshold is a tap. A button held past the
// threshold produces a hold, repeated every threshold for up and down so a
// held button keeps stepping. Mode holds fire once per press. A release after
// a hold produces nothing.
//
// Edge and Poll may be called from different goroutines.
type Classifier struct {
	mu       sync.Mutex
	holdTime time.Duration
	buttons  map[logic.Button]*buttonState
}

// NewClassifier creates a classifier with the given hold threshold.
func NewClassifier(holdTime time.Duration) *Classifier {
	c := &Classifier{
		holdTime: holdTime,
		buttons:  make(map[logic.Button]*buttonState, len(buttonOrder)),
	}
	for _, b := range buttonOrder {
		c.buttons[b] = &buttonState{}
	}
	return c
}

// Edge records a press (pressed=true) or release of button b.
// Repeated edges in the same direction are ignored.
func (c *Classifier) Edge(b logic.Button, pressed bool, now time.Time) []logic.ButtonEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.buttons[b]
	if !ok || st.pressed == pressed {
		return nil
	}

	st.pressed = pressed
	if pressed {
		st.held = false
		st.nextHold = now.Add(c.holdTime)
		return nil
	}

	if st.held {
		return nil
	}
	return []logic.ButtonEvent{{Button: b, Press: logic.PressTap, Time: now}}
}

// Poll reports holds for buttons that have been down past the threshold.
func (c *Classifier) Poll(now time.Time) []logic.ButtonEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var events []logic.ButtonEvent
	for _, b := range buttonOrder {
		st := c.buttons[b]
		if !st.pressed || now.Before(st.nextHold) {
			continue
		}
		if st.held && b == logic.ButtonMode {
			continue
		}
		st.held = true
		st.nextHold = st.nextHold.Add(c.holdTime)
		events = append(events, logic.ButtonEvent{Button: b, Press: logic.PressHold, Time: now})
	}
	return events
}

// Pressed reports whether button b is currently down.
func (c *Classifier) Pressed(b logic.Button) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.buttons[b]
	return ok && st.pressed
}
