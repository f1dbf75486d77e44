// Package metrics exports alarm clock activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Metrics holds the alarm clock collectors.
type Metrics struct {
	Events        *prometheus.CounterVec
	Presses       *prometheus.CounterVec
	AlarmOn       prometheus.Gauge
	Ringing       prometheus.Gauge
	Brightness    prometheus.Gauge
	SecondsToRing prometheus.Gauge
	PublishErrors prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarm_clock_events_total",
			Help: "alarm events by type",
		}, []string{"event"}),
		Presses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarm_clock_button_presses_total",
			Help: "classified button presses",
		}, []string{"button", "press"}),
		AlarmOn: f.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_clock_alarm_on",
			Help: "1 if the alarm is armed",
		}),
		Ringing: f.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_clock_ringing",
			Help: "1 while the alarm is ringing",
		}),
		Brightness: f.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_clock_sunrise_brightness",
			Help: "sunrise light level, 0 to 255",
		}),
		SecondsToRing: f.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_clock_seconds_until_alarm",
			Help: "seconds until the alarm time, negative once passed",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "alarm_clock_publish_errors_total",
			Help: "MQTT publish failures",
		}),
	}
}

// ObserveEvents counts alarm events.
func (m *Metrics) ObserveEvents(events []logic.Event) {
	for _, e := range events {
		m.Events.WithLabelValues(string(e.Type)).Inc()
	}
}

// ObservePress counts a button press.
func (m *Metrics) ObservePress(ev logic.ButtonEvent) {
	m.Presses.WithLabelValues(string(ev.Button), string(ev.Press)).Inc()
}

// ObserveState updates the gauges.
func (m *Metrics) ObserveState(now time.Time, s logic.State, brightness uint8) {
	m.AlarmOn.Set(boolToFloat(s.AlarmOn))
	m.Ringing.Set(boolToFloat(s.Ringing))
	m.Brightness.Set(float64(brightness))
	m.SecondsToRing.Set(s.AlarmTime.Sub(now).Seconds())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
