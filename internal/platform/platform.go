// Package platform models the two remote page types the harvester drives,
// a live stream and the drops inventory, plus the authentication flow both
// depend on. It talks to the site only through the Driver interface.
package platform

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"drop_harvester/internal/config"
	"drop_harvester/internal/harvest"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/notify"
	"drop_harvester/internal/pace"
	"drop_harvester/internal/store"
)

// Driver is the automation boundary. Element lookup has its own bounded
// wait; absence is reported, not errored.
type Driver interface {
	Navigate(url string) error
	Reload() error
	CurrentURL() string
	Has(xpath string) (bool, error)
	Click(xpath string) (bool, error)
	Type(xpath, text string, submit bool) error
	Cookies() ([]model.Cookie, error)
	SetCookies([]model.Cookie) error
	Restart(headlessCapable bool) error
	Close()
}

// DriverFactory launches a fresh browser. headless is a request, not a
// guarantee; callers that expect manual input pass false.
type DriverFactory func(headless bool) (Driver, error)

type FactoryOptions struct {
	Platform config.PlatformConfig
	Harvest  config.HarvestConfig
	Limits   config.LimitsConfig
	Pace     config.PaceConfig
	Headless bool
	Drivers  DriverFactory
	Store    store.Store
	Bus      *logbus.Bus
	Notifier notify.Notifier
}

// Factory builds authenticated page surfaces for the worker pool. It owns
// the cross-account navigation limiter and the per-account pacing locks.
type Factory struct {
	opts FactoryOptions
	nav  *rate.Limiter

	mu     sync.Mutex
	pacers map[string]*pace.Lock
}

func NewFactory(opts FactoryOptions) *Factory {
	qps := opts.Limits.GlobalQPS
	if qps <= 0 {
		qps = 2
	}
	burst := opts.Limits.GlobalBurst
	if burst <= 0 {
		burst = 4
	}
	return &Factory{
		opts:   opts,
		nav:    rate.NewLimiter(rate.Limit(qps), burst),
		pacers: make(map[string]*pace.Lock),
	}
}

// pacerFor returns the account's interaction pacer, creating it on first
// use. Both tasks of an account share one instance; accounts never share.
func (f *Factory) pacerFor(username string) *pace.Lock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.pacers[username]
	if l == nil {
		l = pace.New(f.opts.Pace.MinGap(), f.opts.Pace.JitterPct)
		f.pacers[username] = l
	}
	return l
}

func (f *Factory) newSession(acc *model.Account) *Session {
	return &Session{
		acc:      acc,
		pacer:    f.pacerFor(acc.Username),
		nav:      f.nav,
		store:    f.opts.Store,
		bus:      f.opts.Bus,
		drivers:  f.opts.Drivers,
		baseURL:  f.opts.Platform.BaseURL,
		backoff:  f.opts.Harvest.ChallengeBackoff(),
		headless: f.opts.Headless,
	}
}

// Authenticate settles the account's login state with a throwaway browser:
// either the session restores / the credentials work, or the account is
// definitively failed before any task starts.
func (f *Factory) Authenticate(ctx context.Context, acc *model.Account) error {
	s := f.newSession(acc)
	if err := s.setup(ctx); err != nil {
		s.Close()
		return err
	}
	s.Close()
	return nil
}

// Surfaces builds the presence and reward surfaces for one account. Each
// owns its driver; they share only the account and its pacer.
func (f *Factory) Surfaces(acc *model.Account) (harvest.PresenceSurface, harvest.RewardSurface) {
	stream := &Stream{
		Session:      f.newSession(acc),
		directoryURL: f.opts.Platform.DirectoryURL,
		keepChat:     f.opts.Harvest.KeepChat,
	}
	inv := &Inventory{
		Session:   f.newSession(acc),
		autoClaim: !f.opts.Harvest.ManualClaim,
		claimWait: f.opts.Harvest.ClaimWait(),
		notifier:  f.opts.Notifier,
	}
	return stream, inv
}
