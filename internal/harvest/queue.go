package harvest

import (
	"sync"

	"drop_harvester/internal/model"
)

// Queue feeds accounts to workers and lets the caller wait for every
// account to be fully processed, not merely dequeued.
type Queue struct {
	ch chan *model.Account
	wg sync.WaitGroup
}

func NewQueue(accounts []*model.Account) *Queue {
	q := &Queue{ch: make(chan *model.Account, len(accounts))}
	for _, acc := range accounts {
		q.wg.Add(1)
		q.ch <- acc
	}
	close(q.ch)
	return q
}

// Next pops the next account. ok is false once the queue is drained.
func (q *Queue) Next() (acc *model.Account, ok bool) {
	acc, ok = <-q.ch
	return acc, ok
}

// TaskDone marks one popped account as fully processed.
func (q *Queue) TaskDone() {
	q.wg.Done()
}

// Join blocks until TaskDone has been called for every queued account.
func (q *Queue) Join() {
	q.wg.Wait()
}
