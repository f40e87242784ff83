package harvest

import (
	"sync"
	"testing"
	"time"

	"drop_harvester/internal/model"
)

func TestQueueDeliversEachAccountOnce(t *testing.T) {
	accounts := []*model.Account{
		{Username: "a"}, {Username: "b"}, {Username: "c"}, {Username: "d"},
	}
	q := NewQueue(accounts)

	var (
		mu   sync.Mutex
		seen = map[string]int{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				acc, ok := q.Next()
				if !ok {
					return
				}
				mu.Lock()
				seen[acc.Username]++
				mu.Unlock()
				q.TaskDone()
			}
		}()
	}
	q.Join()
	wg.Wait()

	if len(seen) != len(accounts) {
		t.Fatalf("saw %d accounts, want %d", len(seen), len(accounts))
	}
	for name, n := range seen {
		if n != 1 {
			t.Fatalf("account %s delivered %d times", name, n)
		}
	}
}

func TestQueueJoinWaitsForTaskDone(t *testing.T) {
	q := NewQueue([]*model.Account{{Username: "a"}})
	acc, ok := q.Next()
	if !ok || acc.Username != "a" {
		t.Fatalf("Next() = %v, %v", acc, ok)
	}

	joined := make(chan struct{})
	go func() {
		q.Join()
		close(joined)
	}()

	select {
	case <-joined:
		t.Fatal("Join returned before TaskDone")
	case <-time.After(20 * time.Millisecond):
	}

	q.TaskDone()
	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after TaskDone")
	}
}
