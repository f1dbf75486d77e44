package logic

import (
	"testing"
	"time"
)

func TestFormatDisplay(t *testing.T) {
	at := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	s := State{AlarmOn: true, AlarmTime: at, Dismissed: true}

	tests := []struct {
		name  string
		now   time.Time
		line1 string
		line2 string
	}{
		{
			name:  "even second shows day",
			now:   time.Date(2026, 10, 16, 6, 30, 42, 0, time.UTC),
			line1: "06:30:42 Fri    ",
			line2: "07:00 29m 18s   ",
		},
		{
			name:  "odd second shows date",
			now:   time.Date(2026, 10, 16, 6, 30, 43, 0, time.UTC),
			line1: "06:30:43 Oct 16 ",
			line2: "07:00 29m 17s   ",
		},
		{
			name:  "hours left",
			now:   time.Date(2026, 10, 16, 4, 45, 30, 0, time.UTC),
			line1: "04:45:30 Fri    ",
			line2: "07:00 2h 14m    ",
		},
		{
			name:  "seconds left",
			now:   time.Date(2026, 10, 16, 6, 59, 42, 0, time.UTC),
			line1: "06:59:42 Fri    ",
			line2: "07:00 18s       ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2 := FormatDisplay(tt.now, s, DefaultDisplayWidth)
			if l1 != tt.line1 {
				t.Errorf("line1: got %q, want %q", l1, tt.line1)
			}
			if l2 != tt.line2 {
				t.Errorf("line2: got %q, want %q", l2, tt.line2)
			}
		})
	}
}

func TestFormatDisplayAlarmOff(t *testing.T) {
	at := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	s := State{AlarmOn: false, AlarmTime: at, Dismissed: true}

	_, l2 := FormatDisplay(at.Add(-time.Hour), s, DefaultDisplayWidth)
	if want := "07:00 No alarm  "; l2 != want {
		t.Errorf("line2: got %q, want %q", l2, want)
	}
}

func TestFormatDisplayWidth(t *testing.T) {
	at := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	s := State{AlarmOn: true, AlarmTime: at, Dismissed: true}
	now := time.Date(2026, 10, 16, 6, 30, 43, 0, time.UTC)

	l1, l2 := FormatDisplay(now, s, 8)
	if l1 != "06:30:43" {
		t.Errorf("line1: got %q, want %q", l1, "06:30:43")
	}
	if l2 != "07:00 29" {
		t.Errorf("line2: got %q, want %q", l2, "07:00 29")
	}

	l1, _ = FormatDisplay(now, s, 20)
	if len(l1) != 20 {
		t.Errorf("line1 length: got %d, want 20", len(l1))
	}
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		left time.Duration
		want string
	}{
		{-5 * time.Second, "0s"},
		{0, "0s"},
		{900 * time.Millisecond, "0s"},
		{59 * time.Second, "59s"},
		{time.Minute, "1m 0s"},
		{29*time.Minute + 18*time.Second, "29m 18s"},
		{time.Hour, "1h 0m"},
		{2*time.Hour + 14*time.Minute + 30*time.Second, "2h 14m"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23h 59m"},
	}
	for _, tt := range tests {
		if got := Countdown(tt.left); got != tt.want {
			t.Errorf("Countdown(%v): got %q, want %q", tt.left, got, tt.want)
		}
	}
}
