// Package logic contains the pure alarm clock business logic.
// This package has NO external dependencies (no GPIO, MQTT, audio, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Button identifies one of the three front-panel buttons.
type Button string

const (
	ButtonUp   Button = "UP"
	ButtonDown Button = "DOWN"
	ButtonMode Button = "MODE"
)

// Press is the kind of button event produced by the input layer.
type Press string

const (
	PressTap  Press = "TAP"
	PressHold Press = "HOLD"
)

// ButtonEvent is a single classified button event.
type ButtonEvent struct {
	Button Button
	Press  Press
	Time   time.Time
}

// Phase is the externally visible state of the alarm.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseRinging    Phase = "RINGING"
	PhaseDismissing Phase = "DISMISSING" // dismissed, waiting for the in-flight beep
	PhaseSnoozed    Phase = "SNOOZED"    // idle with a pending snooze
)

// EventType represents an alarm lifecycle event.
type EventType string

const (
	EventRinging   EventType = "ALARM_RINGING"
	EventSnoozed   EventType = "ALARM_SNOOZED"
	EventDismissed EventType = "ALARM_DISMISSED"
	EventAdjusted  EventType = "ALARM_ADJUSTED"
	EventEnabled   EventType = "ALARM_ENABLED"
	EventDisabled  EventType = "ALARM_DISABLED"
	EventRollover  EventType = "ALARM_ROLLOVER"
	EventSet       EventType = "ALARM_SET"
	EventStopped   EventType = "ALARM_STOPPED" // ring sequence ended after a snooze
)

// Event represents an alarm state change to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	AlarmTime time.Time
	AlarmOn   bool
	// Delta is the adjustment applied to the alarm time, if any.
	Delta time.Duration
}

// State is the alarm clock's single mutable aggregate.
// It is a value type; Alarm.State returns a copy.
type State struct {
	AlarmOn bool
	// AlarmTime is the next time the alarm should ring.
	AlarmTime time.Time
	// Scheduled is the ring time as armed, before snooze offsets.
	Scheduled time.Time
	// Ringing is true from the moment the alarm fires until the ring sequence stops.
	Ringing bool
	// Dismissed is false while ringing or snoozed. While false, up/down presses
	// extend AlarmTime instead of adjusting a future alarm.
	Dismissed bool
	// PreviousRingTime is when the last ring sequence stopped.
	PreviousRingTime time.Time
	// DisplaySuspended is true while audio output is active.
	DisplaySuspended bool
}

// Phase derives the visible phase from the state flags.
func (s State) Phase() Phase {
	switch {
	case s.Ringing && s.Dismissed:
		return PhaseDismissing
	case s.Ringing:
		return PhaseRinging
	case !s.Dismissed:
		return PhaseSnoozed
	default:
		return PhaseIdle
	}
}

// CommandKind selects what a Command does.
type CommandKind string

const (
	CommandSet     CommandKind = "SET"
	CommandEnable  CommandKind = "ENABLE"
	CommandDisable CommandKind = "DISABLE"
)

// Command is a direct instruction from the command surface (HTTP API).
type Command struct {
	Kind   CommandKind
	Hour   int // CommandSet only
	Minute int // CommandSet only
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Rings       int
	Snoozes     int
	Dismissals  int
	Adjustments int
	Toggles     int
	Rollovers   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
