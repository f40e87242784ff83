package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/pace"
	"drop_harvester/internal/store"
)

// Session binds one account to one browser for the lifetime of one task.
// Every remote interaction goes through the account's pacer and the global
// navigation limiter.
type Session struct {
	acc     *model.Account
	drv     Driver
	pacer   *pace.Lock
	nav     *rate.Limiter
	store   store.Store
	bus     *logbus.Bus
	drivers DriverFactory

	baseURL  string
	backoff  time.Duration
	headless bool

	id string
}

// setup brings the session to an authenticated state, launching or
// restarting the browser as needed. A cookie-less account cannot start
// headless: its manual login may need a visible window. Once a session
// exists the browser is relaunched hidden.
func (s *Session) setup(ctx context.Context) error {
	if s.id == "" {
		s.id = uuid.NewString()
	}
	hadSession := s.acc.LoggedIn()

	if s.drv == nil {
		if s.headless && !hadSession {
			s.logf("warn", "no saved session, manual login may be required", nil)
		}
		drv, err := s.drivers(s.headless && hadSession)
		if err != nil {
			return fmt.Errorf("%w: launch: %v", ErrDriverFault, err)
		}
		s.drv = drv
	} else {
		if err := s.drv.Restart(hadSession); err != nil {
			return fmt.Errorf("%w: restart: %v", ErrDriverFault, err)
		}
	}

	if err := s.Establish(ctx); err != nil {
		return err
	}

	if s.headless && !hadSession {
		// Login ran in a visible window; hide it now that cookies exist.
		if err := s.drv.Restart(true); err != nil {
			return fmt.Errorf("%w: restart: %v", ErrDriverFault, err)
		}
		return s.Establish(ctx)
	}
	return nil
}

func (s *Session) Close() {
	if s.drv != nil {
		s.drv.Close()
		s.drv = nil
	}
}

func (s *Session) navigate(ctx context.Context, url string) error {
	if err := s.nav.Wait(ctx); err != nil {
		return err
	}
	s.pacer.Acquire()
	defer s.pacer.Release()
	if err := s.drv.Navigate(url); err != nil {
		return fmt.Errorf("%w: navigate %s: %v", ErrDriverFault, url, err)
	}
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	if err := s.nav.Wait(ctx); err != nil {
		return err
	}
	s.pacer.Acquire()
	defer s.pacer.Release()
	if err := s.drv.Reload(); err != nil {
		return fmt.Errorf("%w: reload: %v", ErrDriverFault, err)
	}
	return nil
}

func (s *Session) has(xpath string) (bool, error) {
	present, err := s.drv.Has(xpath)
	if err != nil {
		return false, fmt.Errorf("%w: lookup: %v", ErrDriverFault, err)
	}
	return present, nil
}

func (s *Session) click(xpath string) (bool, error) {
	s.pacer.Acquire()
	defer s.pacer.Release()
	clicked, err := s.drv.Click(xpath)
	if err != nil {
		return false, fmt.Errorf("%w: click: %v", ErrDriverFault, err)
	}
	return clicked, nil
}

func (s *Session) typeInto(xpath, text string, submit bool) error {
	s.pacer.Acquire()
	defer s.pacer.Release()
	if err := s.drv.Type(xpath, text, submit); err != nil {
		return fmt.Errorf("%w: type: %v", ErrDriverFault, err)
	}
	return nil
}

func (s *Session) logf(level, msg string, fields map[string]any) {
	if s.bus == nil {
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["session"] = s.id
	s.bus.AccountLog(level, s.acc.Username, msg, fields)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
