// Package lcd holds the two-line character display and serves a preview of it.
package lcd

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"net/http"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	charWidth  = 7
	lineHeight = 13
	margin     = 4
)

var (
	backlight = color.RGBA{R: 0x9b, G: 0xc7, B: 0x3a, A: 0xff}
	ink       = color.RGBA{R: 0x1e, G: 0x2a, B: 0x10, A: 0xff}
)

// Panel is a character LCD of the given width. It keeps the last rendered
// lines so they can be previewed over HTTP.
type Panel struct {
	width int

	mu      sync.Mutex
	lines   [2]string
	renders int
}

// NewPanel creates a panel width characters wide.
func NewPanel(width int) *Panel {
	return &Panel{width: width}
}

// Render replaces the displayed lines.
func (p *Panel) Render(line1, line2 string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = [2]string{line1, line2}
	p.renders++
	return nil
}

// Lines returns the currently displayed lines.
func (p *Panel) Lines() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines[0], p.lines[1]
}

// Renders returns the number of Render calls so far.
func (p *Panel) Renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

// Image draws the current lines.
func (p *Panel) Image() image.Image {
	l1, l2 := p.Lines()

	img := image.NewRGBA(image.Rect(0, 0, 2*margin+p.width*charWidth, 2*margin+2*lineHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(backlight), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
	}
	for i, line := range []string{l1, l2} {
		d.Dot = fixed.P(margin, margin+(i+1)*lineHeight-basicfont.Face7x13.Descent)
		d.DrawString(line)
	}
	return img
}

// ServeHTTP serves the current display as a PNG.
func (p *Panel) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("content-type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, p.Image()); err != nil {
		log.Printf("lcd: encoding image: %v", err)
	}
}
