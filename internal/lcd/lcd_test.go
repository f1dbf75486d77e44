package lcd

import (
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRenderKeepsLines(t *testing.T) {
	p := NewPanel(16)

	if err := p.Render("06:30:42 Fri    ", "07:00 29m 18s   "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l1, l2 := p.Lines()
	if l1 != "06:30:42 Fri    " || l2 != "07:00 29m 18s   " {
		t.Errorf("got %q %q", l1, l2)
	}
	if p.Renders() != 1 {
		t.Errorf("Renders: got %d, want 1", p.Renders())
	}
}

func TestImageSize(t *testing.T) {
	p := NewPanel(16)
	b := p.Image().Bounds()
	if b.Dx() != 2*margin+16*charWidth {
		t.Errorf("width: got %d", b.Dx())
	}
	if b.Dy() != 2*margin+2*lineHeight {
		t.Errorf("height: got %d", b.Dy())
	}
}

func TestImageDrawsText(t *testing.T) {
	p := NewPanel(16)
	blank := p.Image()

	p.Render("################", "################")
	img := p.Image()

	var diff int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) != blank.At(x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Error("expected text to change the image")
	}
}

func TestServeHTTP(t *testing.T) {
	p := NewPanel(16)
	p.Render("hello", "world")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/display.png", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("decode png: %v", err)
	}
}
