package model

import (
	"sync"
	"time"
)

// Account is one Twitch identity the harvester runs on behalf of.
// Cookies are the saved session handle; once they exist the password is
// cleared and the account logs in without credentials.
type Account struct {
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Admin     bool      `json:"admin"`
	Cookies   []Cookie  `json:"cookies,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Ephemeral accounts are never written to or removed from storage.
	// Used for one-off credential verification.
	Ephemeral bool `json:"-"`

	// mu serializes read-modify-write of Cookies/Password when two tasks
	// of the same account race to log in.
	mu sync.Mutex

	// loginMu is held across an entire credential login so concurrent
	// tasks of the same account run the flow once, not twice.
	loginMu sync.Mutex
}

func (a *Account) Lock()   { a.mu.Lock() }
func (a *Account) Unlock() { a.mu.Unlock() }

func (a *Account) LoginLock()   { a.loginMu.Lock() }
func (a *Account) LoginUnlock() { a.loginMu.Unlock() }

// LoggedIn reports whether the account holds a saved session.
func (a *Account) LoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Cookies) > 0
}

// SessionCookies returns a copy of the saved session cookies.
func (a *Account) SessionCookies() []Cookie {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Cookies) == 0 {
		return nil
	}
	out := make([]Cookie, len(a.Cookies))
	copy(out, a.Cookies)
	return out
}

// Credential returns the stored password, empty once a session exists.
func (a *Account) Credential() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Password
}

// AdoptSession stores freshly captured cookies and discards the password.
// When you have cookies, who needs a password?
func (a *Account) AdoptSession(cookies []Cookie) {
	a.mu.Lock()
	a.Cookies = cookies
	a.Password = ""
	a.mu.Unlock()
}
