// Package sim is a terminal front panel for running the alarm clock without
// hardware. Keys stand in for the three buttons, the screen shows the
// display and both lights, and the terminal bell stands in for the tone.
package sim

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/tone"
)

// EventBuffer is the capacity of the button event channel.
const EventBuffer = 16

const helpText = "u/d/m tap  U/D/M hold  q quit"

// Panel implements gpio.Source, the display, both lights and the tone player
// on a tcell screen.
type Panel struct {
	screen tcell.Screen
	now    func() time.Time
	events chan logic.ButtonEvent
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	quitOnce  sync.Once
	drawMu    sync.Mutex

	mu      sync.Mutex
	line1   string
	line2   string
	status  uint8
	sunrise uint8
	song    string
	stop    chan struct{}
}

// New initialises screen and starts reading keys from it.
func New(screen tcell.Screen, now func() time.Time) (*Panel, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	p := &Panel{
		screen: screen,
		now:    now,
		events: make(chan logic.ButtonEvent, EventBuffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.draw()
	go p.pollEvents()
	return p, nil
}

// Events returns button events produced by key presses.
func (p *Panel) Events() <-chan logic.ButtonEvent {
	return p.events
}

// Quit is closed when the user asks to leave.
func (p *Panel) Quit() <-chan struct{} {
	return p.quit
}

// Close restores the terminal. It is safe to call more than once.
func (p *Panel) Close() error {
	p.closeOnce.Do(func() {
		p.Stop()
		p.screen.Fini()
		select {
		case <-p.done:
		case <-time.After(100 * time.Millisecond):
		}
	})
	return nil
}

func (p *Panel) pollEvents() {
	defer close(p.done)
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			p.screen.Sync()
			p.draw()
		case *tcell.EventKey:
			p.handleKey(ev)
		}
	}
}

func (p *Panel) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		p.quitOnce.Do(func() { close(p.quit) })
		return
	case tcell.KeyRune:
	default:
		return
	}

	r := ev.Rune()
	if r == 'q' || r == 'Q' {
		p.quitOnce.Do(func() { close(p.quit) })
		return
	}
	b, press, ok := keyButton(r)
	if !ok {
		return
	}
	select {
	case p.events <- logic.ButtonEvent{Button: b, Press: press, Time: p.now()}:
	default:
		log.Printf("sim: event buffer full, dropped %s %s", b, press)
	}
}

// keyButton maps a key to a button. Lower case taps, upper case holds.
func keyButton(r rune) (logic.Button, logic.Press, bool) {
	switch r {
	case 'u':
		return logic.ButtonUp, logic.PressTap, true
	case 'd':
		return logic.ButtonDown, logic.PressTap, true
	case 'm':
		return logic.ButtonMode, logic.PressTap, true
	case 'U':
		return logic.ButtonUp, logic.PressHold, true
	case 'D':
		return logic.ButtonDown, logic.PressHold, true
	case 'M':
		return logic.ButtonMode, logic.PressHold, true
	}
	return "", "", false
}

// Render shows the two display lines.
func (p *Panel) Render(line1, line2 string) error {
	p.mu.Lock()
	p.line1, p.line2 = line1, line2
	p.mu.Unlock()
	p.draw()
	return nil
}

// StatusLight returns the light shown as the alarm-on indicator.
func (p *Panel) StatusLight() *Lamp {
	return &Lamp{p: p, level: &p.status}
}

// SunriseLight returns the light shown as the sunrise bar.
func (p *Panel) SunriseLight() *Lamp {
	return &Lamp{p: p, level: &p.sunrise}
}

// Lamp is one of the panel's lights.
type Lamp struct {
	p     *Panel
	level *uint8
}

// SetBrightness sets the lamp level and redraws.
func (l *Lamp) SetBrightness(level uint8) error {
	l.p.mu.Lock()
	changed := *l.level != level
	*l.level = level
	l.p.mu.Unlock()
	if changed {
		l.p.draw()
	}
	return nil
}

// PlayOnce rings the terminal bell and reports completion after the
// pattern's duration.
func (p *Panel) PlayOnce(pat tone.Pattern) <-chan struct{} {
	done := make(chan struct{})
	stop := make(chan struct{})

	p.mu.Lock()
	p.song = pat.Name
	p.stop = stop
	p.mu.Unlock()

	p.screen.Beep()
	p.draw()

	go func() {
		defer close(done)
		t := time.NewTimer(pat.Duration())
		defer t.Stop()
		select {
		case <-t.C:
		case <-stop:
		}
		p.mu.Lock()
		if p.stop == stop {
			p.stop = nil
			p.song = ""
		}
		p.mu.Unlock()
		p.draw()
	}()
	return done
}

// Stop ends the pattern in flight, if any.
func (p *Panel) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
		p.song = ""
	}
}

func (p *Panel) draw() {
	p.mu.Lock()
	line1, line2 := p.line1, p.line2
	status, sunrise, song := p.status, p.sunrise, p.song
	p.mu.Unlock()

	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	s := p.screen
	s.Clear()

	title := tcell.StyleDefault.Bold(true)
	lcd := tcell.StyleDefault.
		Background(tcell.NewRGBColor(32, 48, 32)).
		Foreground(tcell.NewRGBColor(176, 240, 176))
	dim := tcell.StyleDefault.Dim(true)

	drawText(s, 0, 0, title, "alarm-clock")
	drawText(s, 2, 2, lcd, line1)
	drawText(s, 2, 3, lcd, line2)

	led := "off"
	ledStyle := dim
	if status > 0 {
		led = "ON"
		ledStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	}
	drawText(s, 0, 5, tcell.StyleDefault, "alarm ")
	drawText(s, 6, 5, ledStyle, led)

	glow := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(sunrise), int32(sunrise)*4/5, int32(sunrise)/3))
	drawText(s, 0, 6, tcell.StyleDefault, "sunrise ")
	drawText(s, 8, 6, glow, "    ")
	drawText(s, 13, 6, tcell.StyleDefault, fmt.Sprintf("%3d/255", sunrise))

	if song != "" {
		drawText(s, 0, 7, tcell.StyleDefault.Blink(true), "ringing: "+song)
	}
	drawText(s, 0, 9, dim, helpText)
	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
