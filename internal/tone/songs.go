package tone

import "fmt"

// Note frequencies in Hz.
const (
	rest = 0.0
	D4   = 293.66
	Eb4  = 311.13
	E4   = 329.63
	F4   = 349.23
	G4   = 392.00
	A4   = 440.00
	B4   = 493.88
	C4   = 261.63
	C5   = 523.25
	D5   = 587.33
	E5   = 659.25
	F5   = 698.46
	G5   = 783.99
	A5   = 880.00
	C6   = 1046.50
)

// Songs is the built-in song list.
var Songs = []Pattern{
	{
		Name:  "claxon",
		Tempo: 180,
		Notes: []Note{
			{A5, 1}, {rest, 1}, {A5, 1}, {rest, 1},
			{A5, 1}, {rest, 1}, {A5, 1}, {rest, 1},
		},
	},
	{
		Name:  "doorbell",
		Tempo: 100,
		Notes: []Note{{E5, 1}, {C5, 2}, {rest, 1}},
	},
	{
		Name:  "do-re-mi",
		Tempo: 200,
		Notes: []Note{
			{C4, 1}, {D4, 1}, {E4, 1}, {F4, 1},
			{G4, 1}, {A4, 1}, {B4, 1}, {C5, 2}, {rest, 1},
		},
	},
	{
		Name:  "beethovens-fifth",
		Tempo: 216,
		Notes: []Note{
			{G4, 1}, {G4, 1}, {G4, 1}, {Eb4, 4}, {rest, 1},
			{F4, 1}, {F4, 1}, {F4, 1}, {D4, 4}, {rest, 1},
		},
	},
	{
		Name:  "mario-fanfare",
		Tempo: 240,
		Notes: []Note{
			{E5, 1}, {E5, 1}, {rest, 1}, {E5, 1}, {rest, 1}, {C5, 1}, {E5, 2},
			{G5, 2}, {rest, 2}, {G4, 2}, {rest, 2},
		},
	},
	{
		Name:  "pew-pew-pew",
		Tempo: 300,
		Notes: []Note{
			{C6, 1}, {G5, 1}, {E5, 1}, {rest, 1},
			{C6, 1}, {G5, 1}, {E5, 1}, {rest, 1},
			{C6, 1}, {G5, 1}, {E5, 1}, {rest, 2},
		},
	},
	{
		Name:  "tetris-theme",
		Tempo: 300,
		Notes: []Note{
			{E5, 2}, {B4, 1}, {C5, 1}, {D5, 2}, {C5, 1}, {B4, 1},
			{A4, 2}, {A4, 1}, {C5, 1}, {E5, 2}, {D5, 1}, {C5, 1},
			{B4, 3}, {C5, 1}, {D5, 2}, {E5, 2},
			{C5, 2}, {A4, 2}, {A4, 2}, {rest, 2},
		},
	},
}

// Lookup returns the named built-in song.
func Lookup(name string) (Pattern, error) {
	for _, p := range Songs {
		if p.Name == name {
			return p, nil
		}
	}
	return Pattern{}, fmt.Errorf("unknown song %q", name)
}
