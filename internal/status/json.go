package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Phase         string       `json:"phase"`
	Alarm         AlarmJSON    `json:"alarm"`
	Brightness    uint8        `json:"sunrise_brightness"`
	Display       []string     `json:"display"`
	Song          string       `json:"song,omitempty"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// AlarmJSON is the JSON representation of the alarm state.
type AlarmJSON struct {
	On           bool   `json:"on"`
	Time         string `json:"time"`
	Scheduled    string `json:"scheduled,omitempty"`
	Ringing      bool   `json:"ringing"`
	Dismissed    bool   `json:"dismissed"`
	SecondsUntil int64  `json:"seconds_until"`
	LastRing     string `json:"last_ring,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Rings       int `json:"rings"`
	Snoozes     int `json:"snoozes"`
	Dismissals  int `json:"dismissals"`
	Adjustments int `json:"adjustments"`
	Toggles     int `json:"toggles"`
	Rollovers   int `json:"rollovers"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs         int64  `json:"tick_ms"`
	TapStepS       int64  `json:"tap_step_s"`
	HoldStepS      int64  `json:"hold_step_s"`
	HoldTimeMs     int64  `json:"hold_time_ms"`
	DebounceMs     int64  `json:"debounce_ms"`
	SunriseWindowS int64  `json:"sunrise_window_s"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
	History        string `json:"history,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func buildAlarm(snap Snapshot) AlarmJSON {
	s := snap.Alarm.State
	a := AlarmJSON{
		On:        s.AlarmOn,
		Time:      formatTime(s.AlarmTime),
		Scheduled: formatTime(s.Scheduled),
		Ringing:   s.Ringing,
		Dismissed: s.Dismissed,
		LastRing:  formatTime(s.PreviousRingTime),
	}
	if s.AlarmOn && s.AlarmTime.After(snap.Now) {
		a.SecondsUntil = int64(s.AlarmTime.Sub(snap.Now).Truncate(time.Second).Seconds())
	}
	return a
}

func buildInner(snap Snapshot) StatusInner {
	phase := "UNKNOWN"
	if snap.Updated {
		phase = string(snap.Alarm.State.Phase())
	}

	return StatusInner{
		Phase:         phase,
		Alarm:         buildAlarm(snap),
		Brightness:    snap.Alarm.Brightness,
		Display:       []string{snap.Alarm.Line1, snap.Alarm.Line2},
		Song:          snap.Alarm.Song,
		Ready:         snap.Updated,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        buildCounts(snap.Counts),
		Config: ConfigJSON{
			TickMs:         snap.Config.TickMs,
			TapStepS:       snap.Config.TapStepS,
			HoldStepS:      snap.Config.HoldStepS,
			HoldTimeMs:     snap.Config.HoldTimeMs,
			DebounceMs:     snap.Config.DebounceMs,
			SunriseWindowS: snap.Config.SunriseWindowS,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			History:        snap.Config.History,
		},
	}
}

func buildCounts(c logic.EventCounts) CountsJSON {
	return CountsJSON{
		Rings:       c.Rings,
		Snoozes:     c.Snoozes,
		Dismissals:  c.Dismissals,
		Adjustments: c.Adjustments,
		Toggles:     c.Toggles,
		Rollovers:   c.Rollovers,
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
