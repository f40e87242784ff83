// Package pace throttles interaction with the remote site so one account
// never clicks or navigates at a machine-obvious cadence.
package pace

import (
	"math/rand"
	"sync"
	"time"
)

// Lock brackets every remote interaction for a single account:
//
//	l.Acquire()
//	... talk to the site ...
//	l.Release()
//
// Acquire sleeps until at least the configured gap has passed since the last
// Release, plus up to jitterPct percent extra. The lock also mutually
// excludes the two tasks of an account. Not reentrant. One instance per
// account; accounts are never paced against each other.
type Lock struct {
	mu        sync.Mutex
	last      time.Time
	gap       time.Duration
	jitterPct int
}

func New(gap time.Duration, jitterPct int) *Lock {
	if gap < 0 {
		gap = 0
	}
	if jitterPct < 0 {
		jitterPct = 0
	}
	return &Lock{gap: gap, jitterPct: jitterPct}
}

func (l *Lock) Acquire() {
	l.mu.Lock()
	wait := l.gap
	if l.jitterPct > 0 {
		wait += l.gap * time.Duration(rand.Intn(l.jitterPct+1)) / 100
	}
	if elapsed := time.Since(l.last); elapsed < wait {
		time.Sleep(wait - elapsed)
	}
}

func (l *Lock) Release() {
	l.last = time.Now()
	l.mu.Unlock()
}
