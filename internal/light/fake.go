package light

import "sync"

// Fake is a test double that records every brightness change.
type Fake struct {
	mu     sync.Mutex
	levels []uint8

	// Err, if set, is returned by SetBrightness
	Err error

	Closed bool
}

// SetBrightness records level.
func (f *Fake) SetBrightness(level uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.levels = append(f.levels, level)
	return nil
}

// Level returns the last level set, or 0.
func (f *Fake) Level() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.levels) == 0 {
		return 0
	}
	return f.levels[len(f.levels)-1]
}

// Levels returns a copy of all recorded levels.
func (f *Fake) Levels() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint8, len(f.levels))
	copy(out, f.levels)
	return out
}

// On reports whether the last level was non-zero.
func (f *Fake) On() bool {
	return f.Level() > 0
}

// Close marks the light as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
