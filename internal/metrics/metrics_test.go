package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-clock/internal/logic"
)

func TestObserveEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEvents([]logic.Event{
		{Type: logic.EventRinging},
		{Type: logic.EventSnoozed},
		{Type: logic.EventSnoozed},
	})

	require.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("ALARM_RINGING")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("ALARM_SNOOZED")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Events.WithLabelValues("ALARM_DISMISSED")))
}

func TestObservePress(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePress(logic.ButtonEvent{Button: logic.ButtonUp, Press: logic.PressTap})
	m.ObservePress(logic.ButtonEvent{Button: logic.ButtonUp, Press: logic.PressHold})
	m.ObservePress(logic.ButtonEvent{Button: logic.ButtonUp, Press: logic.PressTap})

	require.Equal(t, 2.0, testutil.ToFloat64(m.Presses.WithLabelValues("UP", "TAP")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Presses.WithLabelValues("UP", "HOLD")))
	require.Equal(t, 2, testutil.CollectAndCount(m.Presses))
}

func TestObserveState(t *testing.T) {
	m := New(prometheus.NewRegistry())
	now := time.Date(2026, 10, 16, 6, 30, 0, 0, time.UTC)
	s := logic.State{AlarmOn: true, AlarmTime: now.Add(90 * time.Second), Ringing: true}

	m.ObserveState(now, s, 200)

	require.Equal(t, 1.0, testutil.ToFloat64(m.AlarmOn))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Ringing))
	require.Equal(t, 200.0, testutil.ToFloat64(m.Brightness))
	require.Equal(t, 90.0, testutil.ToFloat64(m.SecondsToRing))

	s.AlarmOn = false
	s.Ringing = false
	m.ObserveState(now, s, 0)
	require.Equal(t, 0.0, testutil.ToFloat64(m.AlarmOn))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Ringing))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}
