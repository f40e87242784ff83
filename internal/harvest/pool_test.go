package harvest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drop_harvester/internal/model"
)

type countingNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (n *countingNotifier) Notify(_ context.Context, acc *model.Account, _ string) {
	n.mu.Lock()
	n.notified = append(n.notified, acc.Username)
	n.mu.Unlock()
}

func (n *countingNotifier) Broadcast(context.Context, bool, string) {}

func phases(state model.RunState) map[string]model.AccountPhase {
	out := map[string]model.AccountPhase{}
	for _, st := range state.Accounts {
		out[st.Username] = st.Phase
	}
	return out
}

func TestPoolRunsEveryAccountToCompletion(t *testing.T) {
	factory := newFakeFactory(1)
	pool := NewPool(Options{
		Factory: factory,
		Workers: 2,
		Cycle:   5 * time.Millisecond,
	})

	accounts := []*model.Account{
		{Username: "a"}, {Username: "b"}, {Username: "c"},
		{Username: "d"}, {Username: "e"},
	}
	if err := pool.Run(context.Background(), accounts); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	state := pool.State()
	if state.Running {
		t.Fatal("pool still reports running after Run returned")
	}
	if state.Workers != 2 {
		t.Fatalf("workers = %d, want 2", state.Workers)
	}
	if len(state.Accounts) != len(accounts) {
		t.Fatalf("state has %d accounts, want %d", len(state.Accounts), len(accounts))
	}
	for name, phase := range phases(state) {
		if phase != model.PhaseFinished {
			t.Fatalf("account %s phase = %s, want finished", name, phase)
		}
	}
	for _, acc := range accounts {
		factory.mu.Lock()
		r := factory.rewards[acc.Username]
		factory.mu.Unlock()
		if r == nil {
			t.Fatalf("account %s never got surfaces", acc.Username)
		}
	}
}

func TestPoolIsolatesAuthFailures(t *testing.T) {
	factory := newFakeFactory(0)
	factory.authErr["bad"] = errors.New("platform rejected credentials")
	pool := NewPool(Options{
		Factory: factory,
		Workers: 1,
		Cycle:   5 * time.Millisecond,
	})

	accounts := []*model.Account{
		{Username: "bad"}, {Username: "good"},
	}
	if err := pool.Run(context.Background(), accounts); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got := phases(pool.State())
	if got["bad"] != model.PhaseFailed {
		t.Fatalf("bad phase = %s, want failed", got["bad"])
	}
	if got["good"] != model.PhaseFinished {
		t.Fatalf("good phase = %s, want finished", got["good"])
	}
	for _, st := range pool.State().Accounts {
		if st.Username == "bad" && st.LastError == "" {
			t.Fatal("failed account has no lastError")
		}
	}
}

func TestPoolNotifiesOncePerFinishedAccount(t *testing.T) {
	factory := newFakeFactory(0)
	notifier := &countingNotifier{}
	pool := NewPool(Options{
		Factory:        factory,
		Workers:        1,
		Cycle:          time.Millisecond,
		Notifier:       notifier,
		NotifyOnFinish: true,
	})

	accounts := []*model.Account{{Username: "a"}, {Username: "b"}}
	if err := pool.Run(context.Background(), accounts); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.notified) != 2 {
		t.Fatalf("notified %d times, want 2: %v", len(notifier.notified), notifier.notified)
	}
	seen := map[string]bool{}
	for _, name := range notifier.notified {
		if seen[name] {
			t.Fatalf("account %s notified twice", name)
		}
		seen[name] = true
	}
}

func TestPoolDefaultsToOneWorkerPerAccount(t *testing.T) {
	factory := newFakeFactory(0)
	pool := NewPool(Options{Factory: factory, Cycle: time.Millisecond})

	accounts := []*model.Account{{Username: "a"}, {Username: "b"}}
	if err := pool.Run(context.Background(), accounts); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got := pool.State().Workers; got != 2 {
		t.Fatalf("workers = %d, want 2", got)
	}
}

func TestPoolRejectsEmptyBatch(t *testing.T) {
	pool := NewPool(Options{Factory: newFakeFactory(0)})
	if err := pool.Run(context.Background(), nil); err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}
