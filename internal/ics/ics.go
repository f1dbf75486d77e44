// Package ics exports the next alarm as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// ProductID identifies the calendar producer.
const ProductID = "-//sweeney//alarm-clock//EN"

// ringLength is the nominal length of the calendar event.
const ringLength = 5 * time.Minute

// namespace seeds the name-based event UIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sweeney/alarm-clock"))

// UID returns a stable identifier for an alarm at the given time. The same
// alarm time always yields the same UID so calendar clients update rather
// than duplicate the event.
func UID(at time.Time) string {
	return uuid.NewSHA1(namespace, []byte(at.UTC().Format(time.RFC3339))).String()
}

// Calendar builds a calendar holding the next alarm. A disabled alarm is
// exported as a cancelled event without a reminder.
func Calendar(now time.Time, s logic.State) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, UID(s.AlarmTime))
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, s.AlarmTime.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, s.AlarmTime.Add(ringLength).UTC())
	event.Props.SetText(ical.PropSummary, "Alarm")

	if s.AlarmOn {
		event.Props.SetText(ical.PropStatus, "CONFIRMED")

		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "AUDIO")
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = "PT0S"
		alarm.Props.Set(trigger)
		event.Children = append(event.Children, alarm)
	} else {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	}

	cal.Children = append(cal.Children, event.Component)
	return cal
}

// Encode writes the calendar for s to w.
func Encode(w io.Writer, now time.Time, s logic.State) error {
	if err := ical.NewEncoder(w).Encode(Calendar(now, s)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
