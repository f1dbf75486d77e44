package tone

import (
	"bytes"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays a pattern once. The returned channel is closed when playback
// has finished or was stopped.
type Player interface {
	PlayOnce(p Pattern) <-chan struct{}
	Stop()
}

// OtoPlayer plays patterns on the default audio device.
type OtoPlayer struct {
	ctx *oto.Context

	mu    sync.Mutex
	cache map[string][]byte
	stop  chan struct{}
}

// NewOtoPlayer opens the audio device and waits for it to become ready.
func NewOtoPlayer() (*OtoPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio context: %w", err)
	}
	<-ready

	log.Println("tone: audio context initialized")
	return &OtoPlayer{
		ctx:   ctx,
		cache: make(map[string][]byte),
	}, nil
}

func (o *OtoPlayer) pcm(p Pattern) []byte {
	if data, ok := o.cache[p.Name]; ok {
		return data
	}
	data := Synthesize(p, SampleRate)
	o.cache[p.Name] = data
	return data
}

// PlayOnce starts playing p and returns immediately.
// A pattern already playing is stopped first.
func (o *OtoPlayer) PlayOnce(p Pattern) <-chan struct{} {
	o.mu.Lock()
	if o.stop != nil {
		close(o.stop)
	}
	stop := make(chan struct{})
	o.stop = stop
	data := o.pcm(p)
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		player := o.ctx.NewPlayer(bytes.NewReader(data))
		player.Play()

		for player.IsPlaying() {
			select {
			case <-stop:
				player.Pause()
				if err := player.Close(); err != nil {
					log.Printf("tone: close player: %v", err)
				}
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := player.Close(); err != nil {
			log.Printf("tone: close player: %v", err)
		}
	}()
	return done
}

// Stop cuts the current pattern short.
func (o *OtoPlayer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
	}
}
