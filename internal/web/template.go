package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/alarm-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Mon 15:04:05")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Alarm Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.ringing { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
pre.lcd { background: #203020; color: #b0f0b0; padding: 0.5em; display: inline-block; }
</style>
</head>
<body>
<h1>Alarm Clock</h1>

{{if .HasDisplay}}<p><img src="/display.png" alt="display"></p>{{else}}<pre class="lcd">{{.Alarm.Line1}}
{{.Alarm.Line2}}</pre>{{end}}

<h2>Alarm</h2>
<table>
<tr><th>Phase</th><td id="phase" class="{{if not .Updated}}unknown{{else if .Alarm.State.Ringing}}ringing{{end}}">{{if .Updated}}{{.Alarm.State.Phase}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Enabled</th><td class="{{if .Alarm.State.AlarmOn}}on{{else}}off{{end}}">{{if .Alarm.State.AlarmOn}}on{{else}}off{{end}}</td></tr>
<tr><th>Next ring</th><td id="alarm-time">{{clock .Alarm.State.AlarmTime}}</td></tr>
<tr><th>Scheduled</th><td>{{clock .Alarm.State.Scheduled}}</td></tr>
<tr><th>Last ring</th><td>{{clock .Alarm.State.PreviousRingTime}}</td></tr>
<tr><th>Sunrise</th><td>{{.Alarm.Brightness}}/255</td></tr>
{{if .Alarm.Song}}<tr><th>Song</th><td>{{.Alarm.Song}}</td></tr>{{end}}
</table>

<form method="post" action="/alarm">
<input type="time" name="time" value="{{if not .Alarm.State.AlarmTime.IsZero}}{{.Alarm.State.AlarmTime.Format "15:04"}}{{end}}">
<select name="on"><option value="">-</option><option value="true">on</option><option value="false">off</option></select>
<button type="submit">Set</button>
</form>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Rings</th><td>{{.Counts.Rings}}</td></tr>
<tr><th>Snoozes</th><td>{{.Counts.Snoozes}}</td></tr>
<tr><th>Dismissals</th><td>{{.Counts.Dismissals}}</td></tr>
<tr><th>Adjustments</th><td>{{.Counts.Adjustments}}</td></tr>
<tr><th>Toggles</th><td>{{.Counts.Toggles}}</td></tr>
<tr><th>Rollovers</th><td>{{.Counts.Rollovers}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Steps</th><td>tap {{.Config.TapStepS}}s, hold {{.Config.HoldStepS}}s</td></tr>
<tr><th>Hold time</th><td>{{.Config.HoldTimeMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Sunrise window</th><td>{{.Config.SunriseWindowS}}s</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/alarm.ics">Calendar</a> <a href="/history.json">History</a> <a href="/metrics">Metrics</a> <a href="/debug/events">Events</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, hasDisplay bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		HasDisplay bool
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		HasDisplay: hasDisplay,
	}
	indexTmpl.Execute(w, data)
}
