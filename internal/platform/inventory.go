package platform

import (
	"context"
	"fmt"
	"time"

	"drop_harvester/internal/notify"
)

// Inventory watches the drops inventory page, claiming rewards as they
// finish. In manual-claim mode it notifies the account's owner instead
// and waits for them to press the button themselves.
type Inventory struct {
	*Session

	autoClaim bool
	claimWait time.Duration
	notifier  notify.Notifier
}

func (inv *Inventory) Setup(ctx context.Context) error {
	if err := inv.setup(ctx); err != nil {
		return err
	}
	return inv.navigate(ctx, inv.baseURL+inventoryPath)
}

// Poll handles one reward cycle and reports whether any drops are still
// in progress. A false result with a nil error means the account is done.
func (inv *Inventory) Poll(ctx context.Context) (bool, error) {
	if err := inv.processClaims(ctx); err != nil {
		return false, err
	}
	return inv.dropsRemaining()
}

// Refresh reloads the inventory between cycles so progress bars advance.
func (inv *Inventory) Refresh(ctx context.Context) error {
	if err := inv.reload(ctx); err != nil {
		return err
	}
	return inv.healthy()
}

// healthy requires the page to show either claimed rewards or drops in
// progress; a page with neither has not rendered the inventory at all.
func (inv *Inventory) healthy() error {
	claimed, err := inv.has(locClaimedHead)
	if err != nil {
		return err
	}
	if claimed {
		return nil
	}
	pending, err := inv.has(locInProgress)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}
	return fmt.Errorf("%w: inventory failed to render for %s", ErrSurfaceError, inv.acc.Username)
}

func (inv *Inventory) dropsRemaining() (bool, error) {
	return inv.has(locDropImage)
}

// processClaims drains every ready claim button. In manual mode each one
// triggers a single owner notification, then we hold until either the
// owner claims it or the wait runs out and we claim it anyway.
func (inv *Inventory) processClaims(ctx context.Context) error {
	ready, err := inv.has(locClaimButton)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	if !inv.autoClaim {
		inv.logf("info", "drop ready, notifying owner", nil)
		if inv.notifier != nil {
			inv.notifier.Notify(ctx, inv.acc, "a drop is ready to claim")
		}
		// Block until the owner claims it themselves.
		for {
			if !sleepCtx(ctx, inv.claimWait) {
				return ctx.Err()
			}
			if err := inv.reload(ctx); err != nil {
				return err
			}
			still, err := inv.has(locClaimButton)
			if err != nil {
				return err
			}
			if !still {
				inv.logf("info", "owner claimed the drop", nil)
				return nil
			}
			inv.logf("info", "drop still unclaimed, waiting", nil)
		}
	}

	for {
		clicked, err := inv.click(locClaimButton)
		if err != nil {
			return err
		}
		if !clicked {
			return nil
		}
		inv.logf("info", "claimed drop reward", nil)
	}
}
