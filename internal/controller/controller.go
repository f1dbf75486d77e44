// Package controller drives the alarm clock outputs from the alarm state.
//
// A Controller is owned by a single goroutine. It wraps a logic.Alarm and
// pushes the resulting state to the lights, the display and the tone player
// on every tick, button press, command and beep completion.
package controller

import (
	"log"
	"math/rand"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/tone"
)

// Light is a dimmable output. Binary lights treat any non-zero level as on.
type Light interface {
	SetBrightness(level uint8) error
}

// Display shows two lines of text.
type Display interface {
	Render(line1, line2 string) error
}

// Tone plays a single pattern. The returned channel is closed when the
// pattern finishes or is stopped.
type Tone interface {
	PlayOnce(p tone.Pattern) <-chan struct{}
	Stop()
}

// Outputs groups the hardware the controller drives.
type Outputs struct {
	Status  Light
	Sunrise Light
	Display Display
	Tone    Tone
}

// Config holds controller settings.
type Config struct {
	Alarm         logic.Config
	SunriseWindow time.Duration
	DisplayWidth  int
	// Songs are picked from at random for every beep.
	Songs []tone.Pattern
}

// DefaultConfig returns the standard configuration with every built-in song.
func DefaultConfig() Config {
	return Config{
		Alarm:         logic.DefaultConfig(),
		SunriseWindow: logic.DefaultSunriseWindow,
		DisplayWidth:  logic.DefaultDisplayWidth,
		Songs:         tone.Songs,
	}
}

// Controller applies alarm transitions and updates the outputs.
type Controller struct {
	cfg   Config
	out   Outputs
	alarm *logic.Alarm

	// Pick returns a random index in [0, n). Replaced in tests.
	Pick func(n int) int

	beep       <-chan struct{}
	stopping   bool
	song       string
	brightness uint8
	line1      string
	line2      string
}

// New creates a controller with a freshly armed alarm.
func New(now time.Time, cfg Config, out Outputs) *Controller {
	if len(cfg.Songs) == 0 {
		cfg.Songs = tone.Songs
	}
	return &Controller{
		cfg:   cfg,
		out:   out,
		alarm: logic.NewAlarm(now, cfg.Alarm),
		Pick:  rand.Intn,
	}
}

// Tick runs one driver step: rollover correction, display, status light,
// sunrise light, then the ring check.
func (c *Controller) Tick(now time.Time) []logic.Event {
	events := c.alarm.Rollover(now)

	c.render(now)
	c.updateLights(now)

	ring := c.alarm.CheckRing(now)
	if len(ring) > 0 {
		c.startBeep()
	}
	return append(events, ring...)
}

// Press applies a classified button event.
func (c *Controller) Press(ev logic.ButtonEvent) []logic.Event {
	events := c.alarm.Press(ev)
	c.afterInput(ev.Time)
	return events
}

// Apply executes a command from the command surface.
func (c *Controller) Apply(now time.Time, cmd logic.Command) []logic.Event {
	events := c.alarm.Apply(now, cmd)
	c.afterInput(now)
	return events
}

// Beeping returns a channel closed when the beep in flight completes, or nil
// if no beep is playing.
func (c *Controller) Beeping() <-chan struct{} {
	return c.beep
}

// BeepDone handles completion of the beep in flight. Another beep is started
// while the alarm keeps ringing.
func (c *Controller) BeepDone(now time.Time) []logic.Event {
	c.beep = nil
	c.stopping = false

	again, events := c.alarm.BeepDone(now)
	if again {
		c.startBeep()
		return events
	}

	c.song = ""
	c.render(now)
	c.updateLights(now)
	return events
}

// CheckHeartbeat returns heartbeat data once per interval.
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	return c.alarm.CheckHeartbeat(now, interval)
}

// State returns a copy of the alarm state.
func (c *Controller) State() logic.State {
	return c.alarm.State()
}

// Counts returns the event counters.
func (c *Controller) Counts() logic.EventCounts {
	return c.alarm.Counts()
}

// Brightness returns the last sunrise level sent to the light.
func (c *Controller) Brightness() uint8 {
	return c.brightness
}

// Lines returns the last rendered display lines.
func (c *Controller) Lines() (string, string) {
	return c.line1, c.line2
}

// Song returns the name of the song in flight, or "".
func (c *Controller) Song() string {
	return c.song
}

func (c *Controller) afterInput(now time.Time) {
	s := c.alarm.State()
	if s.Ringing && s.Dismissed && c.beep != nil && !c.stopping {
		// Dismissal takes effect at beep completion; cut the beep short.
		c.stopping = true
		c.out.Tone.Stop()
	}
	c.render(now)
	c.updateLights(now)
}

func (c *Controller) startBeep() {
	p := c.cfg.Songs[c.Pick(len(c.cfg.Songs))]
	c.song = p.Name
	c.beep = c.out.Tone.PlayOnce(p)
}

func (c *Controller) render(now time.Time) {
	s := c.alarm.State()
	if s.DisplaySuspended {
		return
	}
	c.line1, c.line2 = logic.FormatDisplay(now, s, c.cfg.DisplayWidth)
	if err := c.out.Display.Render(c.line1, c.line2); err != nil {
		log.Printf("controller: render display: %v", err)
	}
}

func (c *Controller) updateLights(now time.Time) {
	s := c.alarm.State()

	var status uint8
	if s.AlarmOn {
		status = logic.MaxBrightness
	}
	if err := c.out.Status.SetBrightness(status); err != nil {
		log.Printf("controller: set status light: %v", err)
	}

	c.brightness = logic.SunriseBrightness(now, s, c.cfg.SunriseWindow)
	if err := c.out.Sunrise.SetBrightness(c.brightness); err != nil {
		log.Printf("controller: set sunrise light: %v", err)
	}
}
