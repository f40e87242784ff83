package platform

import "errors"

// Failure kinds for one account/task. Always wrapped with context and
// matched via errors.Is; none of them ever crosses to another account.
var (
	// ErrNoCredentials: the account has neither a saved session nor a
	// password, so there is nothing to authenticate with.
	ErrNoCredentials = errors.New("no credentials available")

	// ErrInvalidCredentials: the platform explicitly rejected the login.
	// Never retried.
	ErrInvalidCredentials = errors.New("platform rejected credentials")

	// ErrChallengeUnresolved: the challenge wait was interrupted before a
	// human cleared it. The wait itself has no deadline.
	ErrChallengeUnresolved = errors.New("login challenge unresolved")

	// ErrDriverFault: the automation surface became unusable. The owning
	// task reacts with a full re-setup; the account is not abandoned.
	ErrDriverFault = errors.New("automation driver fault")

	// ErrSurfaceError: a polled page is showing an error banner. The
	// owning task re-runs setup and continues its loop.
	ErrSurfaceError = errors.New("page surface error")
)
