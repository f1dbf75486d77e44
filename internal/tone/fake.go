package tone

import "sync"

// FakePlayer records played patterns. Playback completes only when Finish
// or Stop is called.
type FakePlayer struct {
	mu      sync.Mutex
	played  []string
	pending chan struct{}
	stops   int
}

// PlayOnce records p and returns a channel closed by Finish.
func (f *FakePlayer) PlayOnce(p Pattern) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		close(f.pending)
	}
	f.played = append(f.played, p.Name)
	f.pending = make(chan struct{})
	return f.pending
}

// Finish completes the pattern in flight. It reports whether one was playing.
func (f *FakePlayer) Finish() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return false
	}
	close(f.pending)
	f.pending = nil
	return true
}

// Stop completes the pattern in flight and counts the call.
func (f *FakePlayer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.pending != nil {
		close(f.pending)
		f.pending = nil
	}
}

// Played returns the names of all patterns played so far.
func (f *FakePlayer) Played() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.played))
	copy(out, f.played)
	return out
}

// Stops returns how many times Stop was called.
func (f *FakePlayer) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// Playing reports whether a pattern is in flight.
func (f *FakePlayer) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}
