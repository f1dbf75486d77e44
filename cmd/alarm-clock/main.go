// Command alarm-clock runs a bedside alarm clock: three buttons, a two-line
// display, a status LED, a sunrise lamp and a tone, publishing alarm events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/trace"

	"github.com/sweeney/alarm-clock/internal/controller"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/history"
	"github.com/sweeney/alarm-clock/internal/lcd"
	"github.com/sweeney/alarm-clock/internal/light"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/sim"
	"github.com/sweeney/alarm-clock/internal/status"
	"github.com/sweeney/alarm-clock/internal/ticker"
	"github.com/sweeney/alarm-clock/internal/tone"
	"github.com/sweeney/alarm-clock/internal/web"
)

const envPrefix = "ALARM_CLOCK"

// commandQueue is the capacity of the channel between the web server and the loop.
const commandQueue = 8

func main() {
	if err := buildCLI().ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("fatal: %v", err)
	}
}

// options holds every flag. Hardware flags are only registered by run.
type options struct {
	tick          time.Duration
	tapStep       time.Duration
	holdStep      time.Duration
	sunriseWindow time.Duration
	heartbeat     time.Duration
	width         int
	broker        string
	httpAddr      string
	history       string
	song          string

	holdTime   time.Duration
	debounce   time.Duration
	pins       gpio.Pins
	pinLED     int
	sunrisePin string
	audio      bool

	logFile string
}

func registerCommon(fs *flag.FlagSet, o *options, broker, httpAddr string) {
	fs.DurationVar(&o.tick, "tick", time.Second, "Driver tick interval")
	fs.DurationVar(&o.tapStep, "tap-step", logic.DefaultConfig().TapStep, "Alarm adjustment per button tap")
	fs.DurationVar(&o.holdStep, "hold-step", logic.DefaultConfig().HoldStep, "Alarm adjustment per button hold")
	fs.DurationVar(&o.sunriseWindow, "sunrise-window", logic.DefaultSunriseWindow, "Sunrise ramp length before and after the alarm (0 to disable)")
	fs.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.IntVar(&o.width, "width", logic.DefaultDisplayWidth, "Display width in characters")
	fs.StringVar(&o.broker, "broker", broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&o.httpAddr, "http", httpAddr, "HTTP status address (empty to disable)")
	fs.StringVar(&o.history, "history", "", "SQLite event history path (empty to disable)")
	fs.StringVar(&o.song, "song", "", "Always play this song instead of a random one ("+strings.Join(songNames(), ", ")+")")
}

func registerHardware(fs *flag.FlagSet, o *options) {
	fs.DurationVar(&o.holdTime, "hold-time", gpio.DefaultHoldTime, "Press duration that counts as a hold")
	fs.DurationVar(&o.debounce, "debounce", gpio.DefaultDebounce, "Button debounce period")
	fs.IntVar(&o.pins.Up, "pin-up", gpio.PinUp, "BCM pin number for the up button")
	fs.IntVar(&o.pins.Down, "pin-down", gpio.PinDown, "BCM pin number for the down button")
	fs.IntVar(&o.pins.Mode, "pin-mode", gpio.PinMode, "BCM pin number for the mode button")
	fs.IntVar(&o.pinLED, "pin-led", gpio.PinStatusLED, "BCM pin number for the status LED")
	fs.StringVar(&o.sunrisePin, "sunrise-pin", light.DefaultPWMPin, "PWM pin name for the sunrise lamp (empty to disable)")
	fs.BoolVar(&o.audio, "audio", true, "Play tones through the sound card (false keeps silent timing)")
}

func buildCLI() *ffcli.Command {
	envOpts := []ff.Option{ff.WithEnvVarPrefix(envPrefix)}

	var runOpts options
	runFlagSet := flag.NewFlagSet("alarm-clock run", flag.ExitOnError)
	registerCommon(runFlagSet, &runOpts, "tcp://192.168.1.200:1883", ":80")
	registerHardware(runFlagSet, &runOpts)

	runCmd := &ffcli.Command{
		Name:       "run",
		ShortUsage: "alarm-clock run [flags]",
		ShortHelp:  "Run the alarm clock on Raspberry Pi hardware",
		FlagSet:    runFlagSet,
		Options:    envOpts,
		Exec: func(ctx context.Context, _ []string) error {
			return execRun(ctx, runOpts)
		},
	}

	var simOpts options
	simFlagSet := flag.NewFlagSet("alarm-clock sim", flag.ExitOnError)
	registerCommon(simFlagSet, &simOpts, "", "")
	simFlagSet.StringVar(&simOpts.logFile, "log", "", "Write logs to this file (empty discards them)")

	simCmd := &ffcli.Command{
		Name:       "sim",
		ShortUsage: "alarm-clock sim [flags]",
		ShortHelp:  "Run the alarm clock in the terminal",
		LongHelp:   "Keys:\n  u/d/m   tap up/down/mode\n  U/D/M   hold up/down/mode\n  q, Esc  quit",
		FlagSet:    simFlagSet,
		Options:    envOpts,
		Exec: func(ctx context.Context, _ []string) error {
			return execSim(ctx, simOpts)
		},
	}

	var stateOpts options
	stateFlagSet := flag.NewFlagSet("alarm-clock state", flag.ExitOnError)
	registerCommon(stateFlagSet, &stateOpts, "", "")
	registerHardware(stateFlagSet, &stateOpts)

	stateCmd := &ffcli.Command{
		Name:       "state",
		ShortUsage: "alarm-clock state [flags]",
		ShortHelp:  "Print the resolved configuration and the alarm that would be armed now",
		FlagSet:    stateFlagSet,
		Options:    envOpts,
		Exec: func(_ context.Context, _ []string) error {
			return printState(os.Stdout, stateOpts, time.Now())
		},
	}

	return &ffcli.Command{
		ShortUsage:  "alarm-clock <subcommand> [flags]",
		ShortHelp:   "Bedside alarm clock daemon",
		FlagSet:     flag.NewFlagSet("alarm-clock", flag.ExitOnError),
		Subcommands: []*ffcli.Command{runCmd, simCmd, stateCmd},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}

func songNames() []string {
	names := make([]string, len(tone.Songs))
	for i, s := range tone.Songs {
		names[i] = s.Name
	}
	return names
}

func controllerConfig(o options) (controller.Config, error) {
	cfg := controller.DefaultConfig()
	cfg.Alarm = logic.Config{TapStep: o.tapStep, HoldStep: o.holdStep}
	cfg.SunriseWindow = o.sunriseWindow
	cfg.DisplayWidth = o.width
	if o.song != "" {
		p, err := tone.Lookup(o.song)
		if err != nil {
			return controller.Config{}, err
		}
		cfg.Songs = []tone.Pattern{p}
	}
	return cfg, nil
}

func printState(w io.Writer, o options, now time.Time) error {
	cfg, err := controllerConfig(o)
	if err != nil {
		return err
	}
	s := logic.NewAlarm(now, cfg.Alarm).State()

	fmt.Fprintf(w, "pins: up=%d down=%d mode=%d led=%d sunrise=%s\n",
		o.pins.Up, o.pins.Down, o.pins.Mode, o.pinLED, o.sunrisePin)
	fmt.Fprintf(w, "buttons: tap=%v hold=%v hold-time=%v debounce=%v\n",
		cfg.Alarm.TapStep, cfg.Alarm.HoldStep, o.holdTime, o.debounce)
	fmt.Fprintf(w, "alarm: %s on (rings in %s)\n",
		s.AlarmTime.Format("15:04"), logic.Countdown(s.AlarmTime.Sub(now)))
	names := make([]string, len(cfg.Songs))
	for i, p := range cfg.Songs {
		names[i] = p.Name
	}
	fmt.Fprintf(w, "songs: %s\n", strings.Join(names, ", "))
	return nil
}

// hardware is the set of inputs and outputs a daemon runs against.
type hardware struct {
	buttons gpio.Source
	status  controller.Light
	sunrise controller.Light
	tone    controller.Tone
	// display is optional. When nil an in-memory lcd.Panel is used.
	display controller.Display
	// quit is closed when the front end asks to exit. May be nil.
	quit <-chan struct{}
}

func execRun(ctx context.Context, o options) error {
	buttons, err := gpio.NewRealSource(o.pins, o.debounce, o.holdTime)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	led, err := light.NewStatusLED(o.pinLED)
	if err != nil {
		return fmt.Errorf("init status led: %w", err)
	}
	defer led.Close()

	var sunrise light.Light = light.Nop{}
	if o.sunrisePin != "" {
		pwm, err := light.NewPWM(o.sunrisePin, light.DefaultPWMFrequency)
		if err != nil {
			return fmt.Errorf("init sunrise lamp: %w", err)
		}
		sunrise = pwm
	}
	defer sunrise.Close()

	var player controller.Tone = &tone.SilentPlayer{}
	if o.audio {
		oto, err := tone.NewOtoPlayer()
		if err != nil {
			return fmt.Errorf("init audio: %w", err)
		}
		player = oto
	}
	defer player.Stop()

	return serve(ctx, o, hardware{
		buttons: buttons,
		status:  led,
		sunrise: sunrise,
		tone:    player,
	})
}

func execSim(ctx context.Context, o options) error {
	log.SetOutput(io.Discard)
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	panel, err := sim.New(screen, time.Now)
	if err != nil {
		return err
	}
	defer panel.Close()

	return serve(ctx, o, hardware{
		buttons: panel,
		status:  panel.StatusLight(),
		sunrise: panel.SunriseLight(),
		tone:    panel,
		display: panel,
		quit:    panel.Quit(),
	})
}

// serve wires the shared services around hw and runs the loop until a signal
// or a quit request arrives.
func serve(ctx context.Context, o options, hw hardware) error {
	cfg, err := controllerConfig(o)
	if err != nil {
		return err
	}

	panel := lcd.NewPanel(o.width)
	display := hw.display
	if display == nil {
		display = panel
	} else {
		display = multiDisplay{hw.display, panel}
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if o.broker != "" {
		rp, err := mqtt.NewRealPublisher(o.broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = rp, rp
	}
	defer publisher.Close()

	var journal *history.Journal
	if o.history != "" {
		journal, err = history.Open(o.history)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer journal.Close()
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		TickMs:         o.tick.Milliseconds(),
		TapStepS:       int64(o.tapStep.Seconds()),
		HoldStepS:      int64(o.holdStep.Seconds()),
		HoldTimeMs:     o.holdTime.Milliseconds(),
		DebounceMs:     o.debounce.Milliseconds(),
		SunriseWindowS: int64(o.sunriseWindow.Seconds()),
		HeartbeatMs:    o.heartbeat.Milliseconds(),
		Broker:         o.broker,
		HTTPAddr:       o.httpAddr,
		History:        o.history,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	events := trace.NewEventLog("alarm-clock", "controller")
	defer events.Finish()

	l := &loop{
		ctrl: controller.New(start, cfg, controller.Outputs{
			Status:  hw.status,
			Sunrise: hw.sunrise,
			Display: display,
			Tone:    hw.tone,
		}),
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		metrics:    metrics.New(prometheus.DefaultRegisterer),
		events:     events,
		heartbeat:  o.heartbeat,
		now:        time.Now,
	}
	if journal != nil {
		l.journal = journal
	}
	l.update(start)

	// Publish startup event with full status snapshot
	l.publishSystem("STARTUP", "")

	commands := make(chan logic.Command, commandQueue)

	// Start HTTP status server
	if o.httpAddr != "" {
		deps := web.Deps{
			Display:  panel,
			Gatherer: prometheus.DefaultGatherer,
			Commands: commands,
		}
		if journal != nil {
			deps.History = journal
		}
		srv := web.New(o.httpAddr, tracker, deps)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tick := make(chan time.Time)
	go func() {
		if err := ticker.Tick(ctx, o.tick, tick); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ticker stopped: %v", err)
		}
	}()

	log.Printf("started: tick=%v tap=%v hold=%v sunrise=%v broker=%q heartbeat=%v",
		o.tick, o.tapStep, o.holdStep, o.sunriseWindow, o.broker, o.heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return l.run(tick, hw.buttons.Events(), commands, hw.quit, sigCh)
}

// multiDisplay renders to several displays, returning the first error.
type multiDisplay []controller.Display

func (m multiDisplay) Render(line1, line2 string) error {
	var first error
	for _, d := range m {
		if err := d.Render(line1, line2); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// recorder journals alarm events.
type recorder interface {
	Record(id string, e logic.Event, song string) error
}

// loop owns the controller. All of its methods run on one goroutine.
type loop struct {
	ctrl       *controller.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	journal    recorder
	metrics    *metrics.Metrics
	events     trace.EventLog
	heartbeat  time.Duration
	now        func() time.Time
}

func (l *loop) run(tick <-chan time.Time, buttons <-chan logic.ButtonEvent, commands <-chan logic.Command, quit <-chan struct{}, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.publishSystem("SHUTDOWN", signalName(s))
			return nil

		case <-quit:
			log.Printf("quit requested, shutting down")
			l.publishSystem("SHUTDOWN", "QUIT")
			return nil

		case t := <-tick:
			l.onTick(t)

		case ev, ok := <-buttons:
			if !ok {
				log.Printf("button source closed")
				buttons = nil
				continue
			}
			l.onButton(ev)

		case cmd := <-commands:
			l.onCommand(l.now(), cmd)

		case <-l.ctrl.Beeping():
			l.onBeepDone(l.now())
		}
	}
}

// onTick runs one driver step at the tick's second boundary.
func (l *loop) onTick(t time.Time) {
	l.emit(l.ctrl.Tick(t))
	l.checkHeartbeat(t)
	l.update(t)
}

func (l *loop) onButton(ev logic.ButtonEvent) {
	log.Printf("button: %s %s", ev.Button, ev.Press)
	l.events.Printf("button %s %s", ev.Button, ev.Press)
	l.metrics.ObservePress(ev)
	l.emit(l.ctrl.Press(ev))
	l.update(ev.Time)
}

func (l *loop) onCommand(t time.Time, cmd logic.Command) {
	log.Printf("command: %s %02d:%02d", cmd.Kind, cmd.Hour, cmd.Minute)
	l.events.Printf("command %s %02d:%02d", cmd.Kind, cmd.Hour, cmd.Minute)
	l.emit(l.ctrl.Apply(t, cmd))
	l.update(t)
}

func (l *loop) onBeepDone(t time.Time) {
	l.emit(l.ctrl.BeepDone(t))
	l.update(t)
}

// emit publishes, journals and counts each event under a shared id.
func (l *loop) emit(events []logic.Event) {
	for _, e := range events {
		id := mqtt.NewEventID()
		log.Printf("event: %s (alarm=%s on=%t delta=%v)",
			e.Type, e.AlarmTime.Format("2006-01-02 15:04"), e.AlarmOn, e.Delta)
		l.events.Printf("%s alarm=%s delta=%v", e.Type, e.AlarmTime.Format(time.RFC3339), e.Delta)

		if err := l.publisher.Publish(id, e); err != nil {
			log.Printf("publish error: %v", err)
			l.metrics.PublishErrors.Inc()
		}
		if l.journal != nil {
			if err := l.journal.Record(id, e, l.ctrl.Song()); err != nil {
				log.Printf("history error: %v", err)
				l.events.Errorf("history: %v", err)
			}
		}
	}
	l.metrics.ObserveEvents(events)
}

func (l *loop) checkHeartbeat(t time.Time) {
	hbData := l.ctrl.CheckHeartbeat(t, l.heartbeat)
	if hbData == nil {
		return
	}
	c := hbData.Counts
	log.Printf("heartbeat: uptime=%v rings=%d snoozes=%d dismissals=%d adjustments=%d",
		hbData.Uptime, c.Rings, c.Snoozes, c.Dismissals, c.Adjustments)

	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	l.update(t)

	snap := l.tracker.Snapshot()
	hbEvent := mqtt.SystemEvent{
		Timestamp:  hbData.Timestamp,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.publisher.PublishSystem(hbEvent); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// update pushes controller state to the tracker and the gauges.
func (l *loop) update(t time.Time) {
	s := l.ctrl.State()
	line1, line2 := l.ctrl.Lines()
	l.tracker.Update(status.Alarm{
		State:      s,
		Brightness: l.ctrl.Brightness(),
		Line1:      line1,
		Line2:      line2,
		Song:       l.ctrl.Song(),
	}, l.ctrl.Counts())
	l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	l.metrics.ObserveState(t, s, l.ctrl.Brightness())
}

func (l *loop) publishSystem(event, reason string) {
	l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	snap := l.tracker.Snapshot()
	se := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := l.publisher.PublishSystem(se); err != nil {
		log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
		return
	}
	log.Printf("published %s event", strings.ToLower(event))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
