package harvest

import (
	"sync"
	"testing"
	"time"
)

func TestSignalFireReleasesAllListeners(t *testing.T) {
	s := NewSignal()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-s.Done()
		}()
	}
	s.Fire()

	released := make(chan struct{})
	go func() {
		wg.Wait()
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("listeners not released after Fire")
	}
	if !s.Fired() {
		t.Fatal("Fired() = false after Fire")
	}
}

func TestSignalFireIsIdempotent(t *testing.T) {
	s := NewSignal()
	s.Fire()
	s.Fire()
	s.Fire()
}

func TestNilSignalBlocksForever(t *testing.T) {
	var s *Signal
	select {
	case <-s.Done():
		t.Fatal("nil signal should never be done")
	case <-time.After(20 * time.Millisecond):
	}
	if s.Fired() {
		t.Fatal("nil signal reports fired")
	}
	s.Fire()
}
