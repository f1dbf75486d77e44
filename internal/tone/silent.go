package tone

import (
	"sync"
	"time"
)

// SilentPlayer plays nothing but takes as long as the pattern would.
// It keeps the ring cycle running on machines without audio.
type SilentPlayer struct {
	mu   sync.Mutex
	stop chan struct{}
}

// PlayOnce returns a channel closed after p.Duration() or on Stop.
func (s *SilentPlayer) PlayOnce(p Pattern) <-chan struct{} {
	done := make(chan struct{})
	stop := make(chan struct{})

	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	s.stop = stop
	s.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTimer(p.Duration())
		defer t.Stop()
		select {
		case <-t.C:
		case <-stop:
		}
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()
	}()
	return done
}

// Stop ends the pattern in flight, if any.
func (s *SilentPlayer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
