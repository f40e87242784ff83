package pace

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireEnforcesMinimumGap(t *testing.T) {
	const gap = 60 * time.Millisecond
	l := New(gap, 0)

	l.Acquire()
	l.Release()

	start := time.Now()
	l.Acquire()
	elapsed := time.Since(start)
	l.Release()

	if elapsed < gap-5*time.Millisecond {
		t.Fatalf("second acquire ran after %v, want at least %v", elapsed, gap)
	}
}

func TestAcquireDoesNotWaitAfterIdleGap(t *testing.T) {
	const gap = 30 * time.Millisecond
	l := New(gap, 0)

	l.Acquire()
	l.Release()
	time.Sleep(2 * gap)

	start := time.Now()
	l.Acquire()
	elapsed := time.Since(start)
	l.Release()

	if elapsed > gap {
		t.Fatalf("acquire blocked %v after the gap had already passed", elapsed)
	}
}

func TestJitterStaysWithinBound(t *testing.T) {
	const gap = 20 * time.Millisecond
	l := New(gap, 100)

	for i := 0; i < 5; i++ {
		l.Acquire()
		l.Release()

		start := time.Now()
		l.Acquire()
		elapsed := time.Since(start)
		l.Release()

		// At most gap + 100% jitter, with scheduler slack.
		if elapsed > 2*gap+20*time.Millisecond {
			t.Fatalf("iteration %d: acquire waited %v, beyond jitter bound", i, elapsed)
		}
	}
}

func TestLockSerializesBrackets(t *testing.T) {
	l := New(0, 0)

	var mu sync.Mutex
	inBracket := 0
	maxSeen := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Acquire()
				mu.Lock()
				inBracket++
				if inBracket > maxSeen {
					maxSeen = inBracket
				}
				mu.Unlock()

				mu.Lock()
				inBracket--
				mu.Unlock()
				l.Release()
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("saw %d concurrent bracket holders, want 1", maxSeen)
	}
}

func TestNegativeSettingsClampToZero(t *testing.T) {
	l := New(-time.Second, -10)

	start := time.Now()
	l.Acquire()
	l.Release()
	l.Acquire()
	l.Release()

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("zero-gap lock blocked for %v", elapsed)
	}
}
