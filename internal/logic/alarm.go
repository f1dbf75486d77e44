package logic

import "time"

// Day is the length of a single rollover correction.
const Day = 24 * time.Hour

// Config holds the button step sizes. The same steps are used to adjust a
// future alarm and to snooze a ringing one.
type Config struct {
	TapStep  time.Duration
	HoldStep time.Duration
}

// DefaultConfig returns 1 minute per tap and 10 minutes per hold.
func DefaultConfig() Config {
	return Config{
		TapStep:  time.Minute,
		HoldStep: 10 * time.Minute,
	}
}

// Alarm owns the alarm clock state and applies every transition to it.
// It is not safe for concurrent use; the run loop is its only caller.
type Alarm struct {
	cfg           Config
	state         State
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewAlarm creates an armed alarm one hour from now with seconds zeroed.
func NewAlarm(now time.Time, cfg Config) *Alarm {
	at := zeroSeconds(now.Add(time.Hour))
	return &Alarm{
		cfg: cfg,
		state: State{
			AlarmOn:   true,
			AlarmTime: at,
			Scheduled: at,
			Dismissed: true,
		},
		startTime:     now,
		lastHeartbeat: now,
	}
}

// State returns a copy of the current state.
func (a *Alarm) State() State {
	return a.state
}

// Counts returns a copy of the event counters.
func (a *Alarm) Counts() EventCounts {
	return a.eventCounts
}

// CheckAlarmDate returns alarm moved into [now, now+Day) by at most one day.
// It never recurses: a jump of more than a day in one step is not fully corrected.
func CheckAlarmDate(alarm, now time.Time) (time.Time, bool) {
	switch {
	case alarm.Before(now):
		return alarm.Add(Day), true
	case !alarm.Before(now.Add(Day)):
		return alarm.Add(-Day), true
	}
	return alarm, false
}

// Press applies a button event and returns any resulting events.
func (a *Alarm) Press(ev ButtonEvent) []Event {
	now := ev.Time.Truncate(time.Second)

	switch ev.Button {
	case ButtonMode:
		if ev.Press == PressHold {
			return a.setEnabled(now, !a.state.AlarmOn)
		}
		return a.dismiss(now)

	case ButtonUp, ButtonDown:
		step := a.step(ev.Press)
		if !a.state.Dismissed {
			// Ringing or snoozed: both buttons defer the alarm.
			return a.snooze(now, step)
		}
		if ev.Button == ButtonDown {
			step = -step
		}
		return a.adjust(now, step)
	}

	return nil
}

// Rollover runs the day-rollover correction. It only applies while dismissed;
// a snooze that lapsed with the alarm disabled is re-armed for the next day.
func (a *Alarm) Rollover(now time.Time) []Event {
	now = now.Truncate(time.Second)

	if a.state.Ringing {
		return nil
	}

	if !a.state.Dismissed {
		if !a.state.AlarmOn && a.state.AlarmTime.Before(now) {
			a.state.Dismissed = true
			a.rearm()
			a.eventCounts.Dismissals++
			return []Event{a.event(now, EventDismissed, 0)}
		}
		return nil
	}

	corrected, rolled := CheckAlarmDate(a.state.AlarmTime, now)
	if !rolled {
		return nil
	}
	delta := corrected.Sub(a.state.AlarmTime)
	a.state.AlarmTime = corrected
	a.state.Scheduled = corrected
	a.eventCounts.Rollovers++
	return []Event{a.event(now, EventRollover, delta)}
}

// CheckRing starts ringing when the alarm is armed and its second has come.
// A pending snooze whose second was missed also rings.
func (a *Alarm) CheckRing(now time.Time) []Event {
	now = now.Truncate(time.Second)

	if a.state.Ringing || !a.state.AlarmOn {
		return nil
	}

	due := a.state.AlarmTime.Truncate(time.Second).Equal(now) ||
		(!a.state.Dismissed && a.state.AlarmTime.Before(now))
	if !due {
		return nil
	}

	a.state.Ringing = true
	a.state.Dismissed = false
	a.state.DisplaySuspended = true
	a.eventCounts.Rings++
	return []Event{a.event(now, EventRinging, 0)}
}

// BeepDone is called when a single beep has finished playing. It reports
// whether another beep should be played.
func (a *Alarm) BeepDone(now time.Time) (bool, []Event) {
	now = now.Truncate(time.Second)

	if !a.state.Ringing {
		return false, nil
	}

	if a.state.Dismissed {
		a.rearm()
		a.stop(now)
		a.eventCounts.Dismissals++
		return false, []Event{a.event(now, EventDismissed, 0)}
	}

	if !a.state.AlarmTime.After(now) {
		return true, nil
	}

	a.stop(now)
	return false, []Event{a.event(now, EventStopped, 0)}
}

// Apply executes a command from the command surface.
func (a *Alarm) Apply(now time.Time, cmd Command) []Event {
	now = now.Truncate(time.Second)

	switch cmd.Kind {
	case CommandEnable:
		if a.state.AlarmOn {
			return nil
		}
		return a.setEnabled(now, true)
	case CommandDisable:
		if !a.state.AlarmOn {
			return nil
		}
		return a.setEnabled(now, false)
	case CommandSet:
		return a.set(now, cmd.Hour, cmd.Minute)
	}
	return nil
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (a *Alarm) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(a.lastHeartbeat) < interval {
		return nil
	}

	a.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(a.startTime),
		Counts:    a.eventCounts,
	}
}

func (a *Alarm) step(p Press) time.Duration {
	if p == PressHold {
		return a.cfg.HoldStep
	}
	return a.cfg.TapStep
}

func (a *Alarm) dismiss(now time.Time) []Event {
	if a.state.Dismissed {
		return nil
	}
	a.state.Dismissed = true

	if a.state.Ringing {
		// Takes effect when the in-flight beep completes.
		return nil
	}

	// Snoozed with no beep in flight.
	a.rearm()
	a.eventCounts.Dismissals++
	return []Event{a.event(now, EventDismissed, 0)}
}

func (a *Alarm) snooze(now time.Time, step time.Duration) []Event {
	a.state.AlarmTime = a.state.AlarmTime.Add(step)
	a.eventCounts.Snoozes++
	return []Event{a.event(now, EventSnoozed, step)}
}

func (a *Alarm) adjust(now time.Time, delta time.Duration) []Event {
	at, _ := CheckAlarmDate(a.state.AlarmTime.Add(delta), now)
	a.state.AlarmTime = at
	a.state.Scheduled = at
	a.eventCounts.Adjustments++
	return []Event{a.event(now, EventAdjusted, delta)}
}

func (a *Alarm) setEnabled(now time.Time, on bool) []Event {
	a.state.AlarmOn = on
	a.eventCounts.Toggles++
	if !on {
		return []Event{a.event(now, EventDisabled, 0)}
	}
	if a.state.Dismissed {
		a.state.AlarmTime = zeroSeconds(a.state.AlarmTime)
		a.state.Scheduled = a.state.AlarmTime
	}
	return []Event{a.event(now, EventEnabled, 0)}
}

func (a *Alarm) set(now time.Time, hour, minute int) []Event {
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	at, _ = CheckAlarmDate(at, now)

	a.state.AlarmOn = true
	a.state.AlarmTime = at
	a.state.Scheduled = at
	// Replaces any pending snooze. While ringing, the new time acts as a
	// snooze target when the in-flight beep completes.
	a.state.Dismissed = !a.state.Ringing
	return []Event{a.event(now, EventSet, 0)}
}

// rearm schedules the next occurrence one day after the armed time.
func (a *Alarm) rearm() {
	at := zeroSeconds(a.state.Scheduled.Add(Day))
	a.state.AlarmTime = at
	a.state.Scheduled = at
}

func (a *Alarm) stop(now time.Time) {
	a.state.Ringing = false
	a.state.DisplaySuspended = false
	a.state.PreviousRingTime = now
}

func (a *Alarm) event(now time.Time, t EventType, delta time.Duration) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		AlarmTime: a.state.AlarmTime,
		AlarmOn:   a.state.AlarmOn,
		Delta:     delta,
	}
}

func zeroSeconds(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
