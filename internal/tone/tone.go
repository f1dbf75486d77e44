// Package tone synthesizes and plays the alarm songs.
package tone

import (
	"encoding/binary"
	"math"
	"time"
)

// SampleRate is the PCM sample rate used for synthesis and playback.
const SampleRate = 44100

// amplitude is the peak sample value; well below full scale for small speakers.
const amplitude = 0.3 * math.MaxInt16

// fade is the ramp applied to both ends of every note to avoid clicks.
const fade = 5 * time.Millisecond

// Note is a single pitch held for a number of beats. Freq 0 is a rest.
type Note struct {
	Freq  float64
	Beats float64
}

// Pattern is a named sequence of notes played at Tempo beats per minute.
type Pattern struct {
	Name  string
	Tempo int
	Notes []Note
}

func (p Pattern) beat() time.Duration {
	if p.Tempo <= 0 {
		return 0
	}
	return time.Minute / time.Duration(p.Tempo)
}

// Duration returns how long the pattern takes to play once.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, n := range p.Notes {
		d += time.Duration(n.Beats * float64(p.beat()))
	}
	return d
}

// Synthesize renders p as signed 16-bit little-endian mono PCM.
func Synthesize(p Pattern, sampleRate int) []byte {
	var pcm []byte
	fadeSamples := int(fade.Seconds() * float64(sampleRate))

	for _, n := range p.Notes {
		d := time.Duration(n.Beats * float64(p.beat()))
		count := int(d.Seconds() * float64(sampleRate))
		buf := make([]byte, 2*count)

		if n.Freq > 0 {
			for i := 0; i < count; i++ {
				gain := 1.0
				if i < fadeSamples {
					gain = float64(i) / float64(fadeSamples)
				}
				if tail := count - 1 - i; tail < fadeSamples {
					gain = math.Min(gain, float64(tail)/float64(fadeSamples))
				}
				v := gain * amplitude * math.Sin(2*math.Pi*n.Freq*float64(i)/float64(sampleRate))
				binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v)))
			}
		}
		pcm = append(pcm, buf...)
	}
	return pcm
}
