package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/net/trace"

	"github.com/sweeney/alarm-clock/internal/controller"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/history"
	"github.com/sweeney/alarm-clock/internal/lcd"
	"github.com/sweeney/alarm-clock/internal/light"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/status"
	"github.com/sweeney/alarm-clock/internal/tone"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	info := readNetworkInfo()
	if info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" || info.IP != "" || info.Gateway != "" || info.WifiStatus != "" || info.SSID != "" {
		t.Errorf("expected other fields empty, got %+v", info)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("got %q, want SIGINT", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("got %q, want SIGTERM", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("got %q, want UNKNOWN", got)
	}
}

func defaultOptions() options {
	return options{
		tapStep:       time.Minute,
		holdStep:      10 * time.Minute,
		sunriseWindow: logic.DefaultSunriseWindow,
		width:         logic.DefaultDisplayWidth,
		holdTime:      gpio.DefaultHoldTime,
		debounce:      gpio.DefaultDebounce,
		pins:          gpio.DefaultPins(),
		pinLED:        gpio.PinStatusLED,
		sunrisePin:    light.DefaultPWMPin,
	}
}

func TestControllerConfig(t *testing.T) {
	o := defaultOptions()
	o.tapStep = 5 * time.Minute

	cfg, err := controllerConfig(o)
	if err != nil {
		t.Fatalf("controllerConfig: %v", err)
	}
	if cfg.Alarm.TapStep != 5*time.Minute {
		t.Errorf("TapStep: got %v, want 5m", cfg.Alarm.TapStep)
	}
	if len(cfg.Songs) != len(tone.Songs) {
		t.Errorf("Songs: got %d, want all %d", len(cfg.Songs), len(tone.Songs))
	}

	o.song = "doorbell"
	cfg, err = controllerConfig(o)
	if err != nil {
		t.Fatalf("controllerConfig: %v", err)
	}
	if len(cfg.Songs) != 1 || cfg.Songs[0].Name != "doorbell" {
		t.Errorf("Songs: got %v, want doorbell only", cfg.Songs)
	}

	o.song = "kazoo"
	if _, err := controllerConfig(o); err == nil {
		t.Error("expected error for unknown song")
	}
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 1, 1, 6, 0, 30, 0, time.UTC)

	if err := printState(&buf, defaultOptions(), now); err != nil {
		t.Fatalf("printState: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"pins: up=17 down=27 mode=22 led=13 sunrise=GPIO18\n",
		"buttons: tap=1m0s hold=10m0s hold-time=600ms debounce=20ms\n",
		"alarm: 07:00 on (rings in 59m 30s)\n",
		"songs: claxon, doorbell,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

type failingDisplay struct{ err error }

func (f failingDisplay) Render(string, string) error { return f.err }

func TestMultiDisplay(t *testing.T) {
	a := lcd.NewPanel(16)
	b := lcd.NewPanel(16)
	boom := errors.New("boom")

	err := multiDisplay{a, failingDisplay{boom}, b}.Render("one", "two")
	if !errors.Is(err, boom) {
		t.Errorf("err: got %v, want boom", err)
	}
	if l1, l2 := b.Lines(); l1 != "one" || l2 != "two" {
		t.Errorf("later display not rendered: %q %q", l1, l2)
	}
	if a.Renders() != 1 {
		t.Errorf("first display renders: got %d, want 1", a.Renders())
	}
}

// --- loop tests ---

var base = time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)

func at(hh, mm, ss int) time.Time {
	return time.Date(2026, 1, 1, hh, mm, ss, 0, time.UTC)
}

type rig struct {
	l       *loop
	pub     *mqtt.FakePublisher
	player  *tone.FakePlayer
	status  *light.Fake
	sunrise *light.Fake
	panel   *lcd.Panel
	journal *history.Journal
	tracker *status.Tracker
}

func newRig(t *testing.T, heartbeat time.Duration, now func() time.Time) *rig {
	t.Helper()

	journal, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	r := &rig{
		pub:     mqtt.NewFakePublisher(),
		player:  &tone.FakePlayer{},
		status:  &light.Fake{},
		sunrise: &light.Fake{},
		panel:   lcd.NewPanel(logic.DefaultDisplayWidth),
		journal: journal,
		tracker: status.NewTracker(base, status.Config{Broker: "tcp://test:1883"}),
	}
	ctrl := controller.New(base, controller.DefaultConfig(), controller.Outputs{
		Status:  r.status,
		Sunrise: r.sunrise,
		Display: r.panel,
		Tone:    r.player,
	})
	ctrl.Pick = func(int) int { return 0 }

	events := trace.NewEventLog("alarm-clock", "test")
	t.Cleanup(events.Finish)

	r.l = &loop{
		ctrl:       ctrl,
		publisher:  r.pub,
		mqttStatus: r.pub,
		tracker:    r.tracker,
		journal:    journal,
		metrics:    metrics.New(prometheus.NewRegistry()),
		events:     events,
		heartbeat:  heartbeat,
		now:        now,
	}
	return r
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func eventTypes(events []logic.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e.Type)
	}
	return out
}

func wantTypes(t *testing.T, pub *mqtt.FakePublisher, want ...logic.EventType) {
	t.Helper()
	got := pub.EventTypes()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events: got %v, want %v", got, want)
		}
	}
}

func TestOnTickRingsAtAlarmTime(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onTick(at(6, 59, 59))
	if len(r.pub.Events) != 0 {
		t.Fatalf("expected no events before alarm, got %v", eventTypes(r.pub.Events))
	}

	r.l.onTick(at(7, 0, 0))
	wantTypes(t, r.pub, logic.EventRinging)

	if got := r.player.Played(); len(got) != 1 || got[0] != "claxon" {
		t.Errorf("played: got %v, want [claxon]", got)
	}

	snap := r.tracker.Snapshot()
	if snap.Alarm.State.Phase() != logic.PhaseRinging {
		t.Errorf("tracker phase: got %s, want RINGING", snap.Alarm.State.Phase())
	}
	if snap.Alarm.Song != "claxon" {
		t.Errorf("tracker song: got %q, want claxon", snap.Alarm.Song)
	}
	if snap.Counts.Rings != 1 {
		t.Errorf("tracker rings: got %d, want 1", snap.Counts.Rings)
	}
	if got := testutil.ToFloat64(r.l.metrics.Ringing); got != 1 {
		t.Errorf("ringing gauge: got %v, want 1", got)
	}
}

func TestOnTickUpdatesTrackerDisplay(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onTick(at(6, 30, 42))

	snap := r.tracker.Snapshot()
	l1, l2 := r.panel.Lines()
	if snap.Alarm.Line1 != l1 || snap.Alarm.Line2 != l2 {
		t.Errorf("tracker lines %q/%q differ from panel %q/%q", snap.Alarm.Line1, snap.Alarm.Line2, l1, l2)
	}
	if l2 != "07:00 29m 18s   " {
		t.Errorf("line2: got %q", l2)
	}
	if snap.Alarm.Brightness != r.sunrise.Level() {
		t.Errorf("tracker brightness %d differs from lamp %d", snap.Alarm.Brightness, r.sunrise.Level())
	}
	if !r.status.On() {
		t.Error("expected status light on")
	}
}

func TestEventsShareIDAcrossPublishAndHistory(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onTick(at(7, 0, 0))
	r.l.onButton(logic.ButtonEvent{Button: logic.ButtonUp, Press: logic.PressTap, Time: at(7, 0, 1)})

	entries, err := r.journal.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || len(r.pub.IDs) != 2 {
		t.Fatalf("entries=%d published=%d, want 2 each", len(entries), len(r.pub.IDs))
	}
	// Recent is newest first.
	if entries[1].ID != r.pub.IDs[0] || entries[0].ID != r.pub.IDs[1] {
		t.Errorf("ids differ: history %s,%s published %v", entries[1].ID, entries[0].ID, r.pub.IDs)
	}
	if entries[1].Song != "claxon" {
		t.Errorf("ringing entry song: got %q, want claxon", entries[1].Song)
	}
	if entries[0].Event != string(logic.EventSnoozed) || entries[0].DeltaSecs != 60 {
		t.Errorf("snooze entry: got %+v", entries[0])
	}
}

func TestOnButtonCountsPresses(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onButton(logic.ButtonEvent{Button: logic.ButtonDown, Press: logic.PressHold, Time: at(6, 1, 0)})
	r.l.onButton(logic.ButtonEvent{Button: logic.ButtonDown, Press: logic.PressHold, Time: at(6, 1, 1)})

	if got := testutil.ToFloat64(r.l.metrics.Presses.WithLabelValues("DOWN", "HOLD")); got != 2 {
		t.Errorf("presses: got %v, want 2", got)
	}
	wantTypes(t, r.pub, logic.EventAdjusted, logic.EventAdjusted)
	if got := r.tracker.Snapshot().Alarm.State.AlarmTime; !got.Equal(at(6, 40, 0)) {
		t.Errorf("alarm time: got %v, want 06:40", got)
	}
}

func TestOnCommandSetsAlarm(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onCommand(at(6, 0, 5), logic.Command{Kind: logic.CommandSet, Hour: 6, Minute: 30})
	r.l.onCommand(at(6, 0, 6), logic.Command{Kind: logic.CommandDisable})

	wantTypes(t, r.pub, logic.EventSet, logic.EventDisabled)
	s := r.tracker.Snapshot().Alarm.State
	if !s.AlarmTime.Equal(at(6, 30, 0)) {
		t.Errorf("alarm time: got %v, want 06:30", s.AlarmTime)
	}
	if s.AlarmOn {
		t.Error("expected alarm off")
	}
	if r.status.On() {
		t.Error("expected status light off")
	}
}

func TestOnBeepDoneRepeatsWhileRinging(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onTick(at(7, 0, 0))
	r.player.Finish()
	r.l.onBeepDone(at(7, 0, 2))

	if got := len(r.player.Played()); got != 2 {
		t.Errorf("beeps: got %d, want 2", got)
	}
	wantTypes(t, r.pub, logic.EventRinging)
}

func TestPublishErrorDoesNotStopLoop(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))
	r.pub.PublishError = errors.New("broker down")

	r.l.onTick(at(7, 0, 0))

	if got := testutil.ToFloat64(r.l.metrics.PublishErrors); got != 1 {
		t.Errorf("publish errors: got %v, want 1", got)
	}
	// Still journaled and still ringing.
	entries, _ := r.journal.Recent(10)
	if len(entries) != 1 {
		t.Errorf("history entries: got %d, want 1", len(entries))
	}
	if !r.tracker.Snapshot().Alarm.State.Ringing {
		t.Error("expected ringing despite publish error")
	}
}

func TestHeartbeat(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.42")

	r := newRig(t, 15*time.Minute, fixedClock(base))

	r.l.onTick(at(6, 10, 0))
	r.l.onTick(at(6, 15, 0))
	r.l.onTick(at(6, 20, 0))

	names := r.pub.SystemEventNames()
	if len(names) != 1 || names[0] != "HEARTBEAT" {
		t.Fatalf("system events: got %v, want [HEARTBEAT]", names)
	}

	hb := r.pub.SystemEvents[0]
	if !hb.Timestamp.Equal(at(6, 15, 0)) {
		t.Errorf("heartbeat timestamp: got %v, want 06:15", hb.Timestamp)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(hb.RawPayload, &sj); err != nil {
		t.Fatalf("heartbeat payload: %v", err)
	}
	if sj.Status.Event != "HEARTBEAT" {
		t.Errorf("event: got %q, want HEARTBEAT", sj.Status.Event)
	}
	if sj.Status.Network == nil || sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("network: got %+v", sj.Status.Network)
	}
	if sj.Status.Phase != "IDLE" {
		t.Errorf("phase: got %q, want IDLE", sj.Status.Phase)
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))

	r.l.onTick(at(23, 0, 0))

	if names := r.pub.SystemEventNames(); len(names) != 0 {
		t.Errorf("system events: got %v, want none", names)
	}
}

// runLoop drives loop.run on its own goroutine.
type runLoop struct {
	tick     chan time.Time
	buttons  chan logic.ButtonEvent
	commands chan logic.Command
	quit     chan struct{}
	sig      chan os.Signal
	errCh    chan error
}

func startLoop(l *loop) *runLoop {
	rl := &runLoop{
		tick:     make(chan time.Time),
		buttons:  make(chan logic.ButtonEvent),
		commands: make(chan logic.Command),
		quit:     make(chan struct{}),
		sig:      make(chan os.Signal, 1),
		errCh:    make(chan error, 1),
	}
	go func() {
		rl.errCh <- l.run(rl.tick, rl.buttons, rl.commands, rl.quit, rl.sig)
	}()
	return rl
}

func (rl *runLoop) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-rl.errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunShutdownSignals(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGINT, syscall.SIGTERM} {
		r := newRig(t, 0, fixedClock(at(6, 0, 1)))
		rl := startLoop(r.l)
		rl.tick <- at(6, 0, 1)
		rl.sig <- sig
		rl.wait(t)

		names := r.pub.SystemEventNames()
		if len(names) != 1 || names[0] != "SHUTDOWN" {
			t.Fatalf("system events: got %v, want [SHUTDOWN]", names)
		}
		se := r.pub.SystemEvents[0]
		if se.Reason != signalName(sig) {
			t.Errorf("reason: got %q, want %q", se.Reason, signalName(sig))
		}
		if !se.Retained {
			t.Error("expected Retained=true for SHUTDOWN")
		}
		if !strings.Contains(string(se.RawPayload), `"event":"SHUTDOWN"`) {
			t.Errorf("payload: %s", se.RawPayload)
		}
	}
}

func TestRunQuit(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))
	rl := startLoop(r.l)
	close(rl.quit)
	rl.wait(t)

	se := r.pub.SystemEvents
	if len(se) != 1 || se[0].Event != "SHUTDOWN" || se[0].Reason != "QUIT" {
		t.Errorf("system events: got %+v", se)
	}
}

func TestRunRingSnoozeDismiss(t *testing.T) {
	r := newRig(t, 0, fixedClock(at(7, 0, 3)))
	rl := startLoop(r.l)

	rl.tick <- at(6, 59, 59)
	rl.tick <- at(7, 0, 0)
	rl.buttons <- logic.ButtonEvent{Button: logic.ButtonUp, Press: logic.PressTap, Time: at(7, 0, 1)}
	// Dismissal stops the beep; the loop picks up its completion.
	rl.buttons <- logic.ButtonEvent{Button: logic.ButtonMode, Press: logic.PressTap, Time: at(7, 0, 2)}

	waitFor(t, func() bool { return len(r.pub.EventTypes()) == 3 })
	rl.sig <- syscall.SIGTERM
	rl.wait(t)

	wantTypes(t, r.pub, logic.EventRinging, logic.EventSnoozed, logic.EventDismissed)
	if r.player.Stops() != 1 {
		t.Errorf("tone stops: got %d, want 1", r.player.Stops())
	}

	s := r.tracker.Snapshot().Alarm.State
	if s.Ringing || !s.Dismissed {
		t.Errorf("state after dismissal: %+v", s)
	}
	if want := time.Date(2026, 1, 2, 7, 0, 0, 0, time.UTC); !s.AlarmTime.Equal(want) {
		t.Errorf("re-armed for %v, want %v", s.AlarmTime, want)
	}
	if s.PreviousRingTime.IsZero() {
		t.Error("expected PreviousRingTime set")
	}
}

func TestRunCommandFromQueue(t *testing.T) {
	r := newRig(t, 0, fixedClock(at(6, 0, 10)))
	rl := startLoop(r.l)

	rl.commands <- logic.Command{Kind: logic.CommandSet, Hour: 5, Minute: 45}
	rl.sig <- syscall.SIGTERM
	rl.wait(t)

	wantTypes(t, r.pub, logic.EventSet)
	// 05:45 has passed today, so the alarm is set for tomorrow.
	if got, want := r.tracker.Snapshot().Alarm.State.AlarmTime, time.Date(2026, 1, 2, 5, 45, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("alarm time: got %v, want %v", got, want)
	}
}

func TestRunClosedButtonSource(t *testing.T) {
	r := newRig(t, 0, fixedClock(base))
	rl := startLoop(r.l)

	close(rl.buttons)
	rl.tick <- at(6, 0, 1)
	rl.sig <- syscall.SIGTERM
	rl.wait(t)

	if r.panel.Renders() == 0 {
		t.Error("expected the loop to keep ticking after the button source closed")
	}
}
