package platform

import (
	"context"
	"errors"
	"fmt"

	"drop_harvester/internal/store"
)

// Establish gets the browser into a logged-in state. Saved cookies are
// tried first; only when the account has none does the credential flow
// run, serialized per account so a racing task picks up the fresh
// session instead of logging in twice.
func (s *Session) Establish(ctx context.Context) error {
	stale := false
	if s.acc.LoggedIn() {
		err := s.restoreSession(ctx)
		if err == nil || !errors.Is(err, ErrInvalidCredentials) {
			return err
		}
		// Stale session. Fall back to the credential flow if a password
		// is still around; otherwise the account is stuck.
		if s.acc.Credential() == "" {
			return err
		}
		s.logf("warn", "saved session stale, retrying with credentials", nil)
		s.acc.Lock()
		s.acc.Cookies = nil
		s.acc.Unlock()
		stale = true
	}

	s.acc.LoginLock()
	defer s.acc.LoginUnlock()

	// Another task may have finished the login while we waited. Skip the
	// reload after a stale restore: the store still holds the cookies
	// that just failed.
	if !stale && s.store != nil && !s.acc.Ephemeral {
		if fresh, err := s.store.Load(ctx, s.acc.Username); err == nil {
			if len(fresh.Cookies) > 0 {
				s.acc.AdoptSession(fresh.Cookies)
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("reload account %s: %w", s.acc.Username, err)
		}
	}
	if s.acc.LoggedIn() {
		return s.restoreSession(ctx)
	}
	return s.credentialLogin(ctx)
}

// restoreSession injects the saved cookies and verifies the platform
// accepted them. Never writes to storage.
func (s *Session) restoreSession(ctx context.Context) error {
	if err := s.navigate(ctx, s.baseURL); err != nil {
		return err
	}
	if err := s.drv.SetCookies(s.acc.SessionCookies()); err != nil {
		return fmt.Errorf("%w: set cookies: %v", ErrDriverFault, err)
	}
	if err := s.reload(ctx); err != nil {
		return err
	}
	ok, err := s.has(locUserMenu)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: saved session for %s rejected", ErrInvalidCredentials, s.acc.Username)
	}
	s.logf("info", "session restored", nil)
	return nil
}

func (s *Session) credentialLogin(ctx context.Context) error {
	password := s.acc.Credential()
	if password == "" {
		return fmt.Errorf("%w: %s has neither session nor password", ErrNoCredentials, s.acc.Username)
	}

	s.logf("info", "logging in with credentials", nil)
	if err := s.navigate(ctx, s.baseURL+loginPath); err != nil {
		return err
	}
	if err := s.typeInto(locLoginUsername, s.acc.Username, false); err != nil {
		return err
	}
	if err := s.typeInto(locLoginPassword, password, true); err != nil {
		return err
	}

	rejected, err := s.has(locServerAlert)
	if err != nil {
		return err
	}
	if rejected {
		return fmt.Errorf("%w: %s rejected by server", ErrInvalidCredentials, s.acc.Username)
	}

	if err := s.waitOutChallenges(ctx); err != nil {
		return err
	}

	cookies, err := s.drv.Cookies()
	if err != nil {
		return fmt.Errorf("%w: capture cookies: %v", ErrDriverFault, err)
	}
	s.acc.AdoptSession(cookies)
	if s.store != nil && !s.acc.Ephemeral {
		if err := s.store.Save(ctx, s.acc); err != nil {
			return fmt.Errorf("save session for %s: %w", s.acc.Username, err)
		}
	}
	s.logf("info", "logged in, session saved", nil)
	return nil
}

// waitOutChallenges blocks while any interactive challenge is on screen.
// Auth codes, captchas and device prompts all need the human behind the
// keyboard; we just poll until they are gone and the user menu shows up.
func (s *Session) waitOutChallenges(ctx context.Context) error {
	challenges := map[string]string{
		"auth code":     locAuthCodePrompt,
		"captcha":       locCaptchaFrame,
		"device verify": locDeviceVerify,
	}
	for {
		pending := ""
		for name, xpath := range challenges {
			present, err := s.has(xpath)
			if err != nil {
				return err
			}
			if present {
				pending = name
				break
			}
		}
		if pending == "" {
			done, err := s.has(locUserMenu)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		} else {
			s.logf("warn", "waiting on challenge", map[string]any{"challenge": pending})
		}
		if !sleepCtx(ctx, s.backoff) {
			return fmt.Errorf("%w: login interrupted for %s", ErrChallengeUnresolved, s.acc.Username)
		}
	}
}
