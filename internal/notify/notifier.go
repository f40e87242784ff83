// Package notify tells account owners about things that happened while
// they were away: a drop waiting for a manual claim, or a finished run.
// Delivery is best effort; a failed notification never fails a harvest.
package notify

import (
	"context"

	"drop_harvester/internal/config"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/store"
)

type Notifier interface {
	// Notify reaches the owner of one account.
	Notify(ctx context.Context, acc *model.Account, message string)

	// Broadcast reaches every stored account, or only admins.
	Broadcast(ctx context.Context, adminOnly bool, message string)
}

// Noop is the notifier used when every channel is disabled.
type Noop struct{}

func (Noop) Notify(context.Context, *model.Account, string) {}
func (Noop) Broadcast(context.Context, bool, string)        {}

// Multi fans out to several channels.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, acc *model.Account, message string) {
	for _, n := range m {
		n.Notify(ctx, acc, message)
	}
}

func (m Multi) Broadcast(ctx context.Context, adminOnly bool, message string) {
	for _, n := range m {
		n.Broadcast(ctx, adminOnly, message)
	}
}

// NewFromConfig assembles the enabled channels.
func NewFromConfig(cfg config.NotifyConfig, st store.Store, bus *logbus.Bus) Notifier {
	var out Multi
	if cfg.SMS.Enabled {
		out = append(out, NewSMSNotifier(cfg.SMS, st, bus))
	}
	if cfg.Email.Enabled {
		out = append(out, NewEmailNotifier(cfg.Email, bus))
	}
	if len(out) == 0 {
		return Noop{}
	}
	return out
}
