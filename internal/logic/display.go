package logic

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDisplayWidth matches a 16x2 character LCD.
const DefaultDisplayWidth = 16

// NoAlarm replaces the countdown when the alarm is off.
const NoAlarm = "No alarm"

// FormatDisplay returns the two display lines, each exactly width characters.
//
// Line 1 shows the current time followed by the day name on even seconds and
// the date on odd seconds. Line 2 shows the alarm time and a countdown.
func FormatDisplay(now time.Time, s State, width int) (string, string) {
	suffix := now.Format("Mon")
	if now.Second()%2 == 1 {
		suffix = now.Format("Jan 02")
	}
	line1 := now.Format("15:04:05") + " " + suffix

	status := NoAlarm
	if s.AlarmOn {
		status = Countdown(s.AlarmTime.Sub(now))
	}
	line2 := s.AlarmTime.Format("15:04") + " " + status

	return fit(line1, width), fit(line2, width)
}

// Countdown renders the time left as "{h}h {m}m", "{m}m {s}s" or "{s}s".
func Countdown(left time.Duration) string {
	if left < 0 {
		left = 0
	}
	left = left.Truncate(time.Second)
	h := int(left / time.Hour)
	m := int(left/time.Minute) % 60
	sec := int(left/time.Second) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// fit pads or truncates s to exactly width bytes.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
