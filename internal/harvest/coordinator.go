package harvest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
)

// maxConsecutiveFaults is how many back-to-back setup failures a task
// tolerates before the whole account run is abandoned.
const maxConsecutiveFaults = 5

// Coordinator runs one account's pair of tasks until the rewards are
// exhausted or the context ends. Task errors are handled uniformly: tear
// the surface down, set it up again, keep going.
type Coordinator struct {
	factory SessionFactory
	cycle   time.Duration
	bus     *logbus.Bus
}

func NewCoordinator(factory SessionFactory, cycle time.Duration, bus *logbus.Bus) *Coordinator {
	if cycle <= 0 {
		cycle = 600 * time.Second
	}
	return &Coordinator{factory: factory, cycle: cycle, bus: bus}
}

// Run blocks until both tasks finish. The reward task decides when the
// account is done; the presence task follows it out.
func (c *Coordinator) Run(ctx context.Context, acc *model.Account) error {
	presence, rewards := c.factory.Surfaces(acc)
	done := NewSignal()

	var (
		wg      sync.WaitGroup
		presErr error
		rewErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		presErr = c.runPresence(ctx, acc, presence, done)
	}()
	go func() {
		defer wg.Done()
		rewErr = c.runRewards(ctx, acc, rewards, done)
	}()
	wg.Wait()

	if rewErr != nil {
		return rewErr
	}
	return presErr
}

func (c *Coordinator) runPresence(ctx context.Context, acc *model.Account, s PresenceSurface, done *Signal) error {
	defer s.Close()

	faults := 0
	for {
		if err := s.Setup(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			faults++
			if faults >= maxConsecutiveFaults {
				return fmt.Errorf("presence task for %s: %w", acc.Username, err)
			}
			c.logf("warn", acc, "presence setup failed, retrying", err)
			if !c.waitCycle(ctx, done) {
				return nil
			}
			continue
		}
		faults = 0

		for {
			if err := s.Tend(ctx); err != nil {
				c.logf("warn", acc, "presence cycle failed, rebuilding", err)
				break
			}
			if !c.waitCycle(ctx, done) {
				return nil
			}
			if err := s.Check(ctx); err != nil {
				c.logf("warn", acc, "presence check failed, rebuilding", err)
				break
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A rebuild still respects the poll cadence.
		if !c.waitCycle(ctx, done) {
			return nil
		}
	}
}

func (c *Coordinator) runRewards(ctx context.Context, acc *model.Account, s RewardSurface, done *Signal) error {
	defer s.Close()
	// However this task ends, release the presence task with it.
	defer done.Fire()

	faults := 0
	for {
		if err := s.Setup(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			faults++
			if faults >= maxConsecutiveFaults {
				return fmt.Errorf("reward task for %s: %w", acc.Username, err)
			}
			c.logf("warn", acc, "reward setup failed, retrying", err)
			if !c.waitCycle(ctx, done) {
				return nil
			}
			continue
		}
		faults = 0

		for {
			remaining, err := s.Poll(ctx)
			if err != nil {
				c.logf("warn", acc, "reward cycle failed, rebuilding", err)
				break
			}
			if !remaining {
				c.logf("info", acc, "all rewards collected", nil)
				return nil
			}
			if !c.waitCycle(ctx, done) {
				return nil
			}
			if err := s.Refresh(ctx); err != nil {
				c.logf("warn", acc, "reward refresh failed, rebuilding", err)
				break
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.waitCycle(ctx, done) {
			return nil
		}
	}
}

// waitCycle sleeps one poll cycle. Returns false when the run is over,
// either because the partner task finished or the context ended.
func (c *Coordinator) waitCycle(ctx context.Context, done *Signal) bool {
	t := time.NewTimer(c.cycle)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Coordinator) logf(level string, acc *model.Account, msg string, err error) {
	if c.bus == nil {
		return
	}
	fields := map[string]any{}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.bus.AccountLog(level, acc.Username, msg, fields)
}
