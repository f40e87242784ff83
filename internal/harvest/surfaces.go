// Package harvest runs unattended sessions to completion. Each account
// gets two cooperating tasks, one keeping presence on a live stream and
// one watching the reward inventory; accounts flow through a fixed pool
// of workers.
package harvest

import (
	"context"

	"drop_harvester/internal/model"
)

// PresenceSurface is the page that accrues watch time. The coordinator
// owns every timing decision; the surface only does page work.
type PresenceSurface interface {
	// Setup brings the surface to a usable state from scratch. Called
	// again after any error.
	Setup(ctx context.Context) error
	// Tend does the once-per-cycle maintenance pass.
	Tend(ctx context.Context) error
	// Check is the cheap health probe between cycles.
	Check(ctx context.Context) error
	Close()
}

// RewardSurface is the page that collects finished rewards.
type RewardSurface interface {
	Setup(ctx context.Context) error
	// Poll claims whatever is ready and reports whether any rewards are
	// still pending. false with a nil error ends the account's run.
	Poll(ctx context.Context) (bool, error)
	// Refresh re-renders the surface so progress becomes visible.
	Refresh(ctx context.Context) error
	Close()
}

// SessionFactory authenticates accounts and hands out their surfaces.
type SessionFactory interface {
	Authenticate(ctx context.Context, acc *model.Account) error
	Surfaces(acc *model.Account) (PresenceSurface, RewardSurface)
}
