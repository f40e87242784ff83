package harvest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/notify"
)

type Options struct {
	Factory SessionFactory
	// Workers caps concurrent accounts. Zero means one worker per account.
	Workers        int
	Cycle          time.Duration
	Bus            *logbus.Bus
	Notifier       notify.Notifier
	NotifyOnFinish bool
}

// Pool drives a batch of accounts through authentication and their task
// pairs. One account failing never touches the others.
type Pool struct {
	opts  Options
	coord *Coordinator
	runID string

	mu      sync.Mutex
	running bool
	workers int
	states  map[string]*model.AccountState
	order   []string
}

func NewPool(opts Options) *Pool {
	return &Pool{
		opts:   opts,
		coord:  NewCoordinator(opts.Factory, opts.Cycle, opts.Bus),
		runID:  uuid.NewString(),
		states: make(map[string]*model.AccountState),
	}
}

// Run processes every account and returns once all of them have either
// finished or failed. Cancelling ctx drains the pool early.
func (p *Pool) Run(ctx context.Context, accounts []*model.Account) error {
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts to run")
	}

	workers := p.opts.Workers
	if workers <= 0 || workers > len(accounts) {
		workers = len(accounts)
	}

	p.mu.Lock()
	p.running = true
	p.workers = workers
	for _, acc := range accounts {
		p.states[acc.Username] = &model.AccountState{
			Username: acc.Username,
			Phase:    model.PhaseQueued,
		}
		p.order = append(p.order, acc.Username)
	}
	p.mu.Unlock()
	p.publishState()

	queue := NewQueue(accounts)
	for i := 0; i < workers; i++ {
		go p.worker(ctx, queue)
	}
	queue.Join()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.publishState()
	return nil
}

func (p *Pool) worker(ctx context.Context, queue *Queue) {
	for {
		acc, ok := queue.Next()
		if !ok {
			return
		}
		p.runOne(ctx, acc)
		queue.TaskDone()
	}
}

// runOne isolates one account end to end, panics included.
func (p *Pool) runOne(ctx context.Context, acc *model.Account) {
	defer func() {
		if r := recover(); r != nil {
			p.setPhase(acc.Username, model.PhaseFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	if ctx.Err() != nil {
		p.setPhase(acc.Username, model.PhaseFailed, "run cancelled")
		return
	}

	p.setPhase(acc.Username, model.PhaseAuthenticating, "")
	if err := p.opts.Factory.Authenticate(ctx, acc); err != nil {
		p.setPhase(acc.Username, model.PhaseFailed, err.Error())
		return
	}

	p.setPhase(acc.Username, model.PhaseRunning, "")
	if err := p.coord.Run(ctx, acc); err != nil {
		p.setPhase(acc.Username, model.PhaseFailed, err.Error())
		return
	}
	if ctx.Err() != nil {
		p.setPhase(acc.Username, model.PhaseFailed, "run cancelled")
		return
	}

	p.setPhase(acc.Username, model.PhaseFinished, "")
	if p.opts.NotifyOnFinish && p.opts.Notifier != nil {
		p.opts.Notifier.Notify(ctx, acc, "all drops collected, account done")
	}
}

func (p *Pool) setPhase(username string, phase model.AccountPhase, lastError string) {
	now := time.Now().UnixMilli()

	p.mu.Lock()
	st := p.states[username]
	if st == nil {
		st = &model.AccountState{Username: username}
		p.states[username] = st
		p.order = append(p.order, username)
	}
	st.Phase = phase
	st.LastError = lastError
	switch phase {
	case model.PhaseAuthenticating:
		st.StartedMs = now
	case model.PhaseFinished, model.PhaseFailed:
		st.FinishedMs = now
	}
	p.mu.Unlock()

	if p.opts.Bus != nil {
		fields := map[string]any{"phase": string(phase)}
		if lastError != "" {
			fields["error"] = lastError
		}
		level := "info"
		if phase == model.PhaseFailed {
			level = "warn"
		}
		p.opts.Bus.AccountLog(level, username, "account phase changed", fields)
	}
	p.publishState()
}

// State snapshots the run for the status API. Accounts keep queue order.
func (p *Pool) State() model.RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := model.RunState{
		RunID:    p.runID,
		Running:  p.running,
		Workers:  p.workers,
		Accounts: make([]model.AccountState, 0, len(p.order)),
	}
	for _, username := range p.order {
		out.Accounts = append(out.Accounts, *p.states[username])
	}
	return out
}

func (p *Pool) publishState() {
	if p.opts.Bus != nil {
		p.opts.Bus.Publish("state", p.State())
	}
}
