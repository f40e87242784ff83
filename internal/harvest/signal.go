package harvest

import "sync"

// Signal is a one-shot, many-listener flag. Fire is idempotent and safe
// from any goroutine; listeners select on Done.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

func (s *Signal) Fire() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.ch) })
}

// Done returns the wait channel. A nil Signal blocks forever, so a task
// can run without a partner.
func (s *Signal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Signal) Fired() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
