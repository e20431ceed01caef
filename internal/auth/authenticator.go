// Package auth holds the session-bootstrap state machine: an out-of-band
// authorization-code exchange against the backend's OAuth endpoints. The
// user opens the authorization URL elsewhere, then pastes the resulting
// code back into the client.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"chika/internal/api"
)

// Status enumerates the authenticator states.
type Status int

const (
	// StatusChecking is the initial state while stored credentials are
	// being probed.
	StatusChecking Status = iota
	StatusUnauthenticated
	// StatusAwaitingCode means an authorization attempt is live and the
	// user has been pointed at the authorization URL.
	StatusAwaitingCode
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAwaitingCode:
		return "awaiting-code"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	// ErrInvalidAttempt is returned when a code is submitted with no live
	// authorization attempt, including resubmission after a successful
	// exchange consumed the attempt.
	ErrInvalidAttempt = errors.New("no live authorization attempt")

	// ErrExchangeRejected is returned when the backend rejects the
	// code/state pair. The attempt stays open so the user can retry.
	ErrExchangeRejected = errors.New("authorization code rejected")
)

// Backend is the slice of the REST client the authenticator needs.
type Backend interface {
	OAuthStatus(ctx context.Context) ([]string, error)
	Authorize(ctx context.Context, provider string) (api.Authorization, error)
	ExchangeCode(ctx context.Context, provider, code, state string) (bool, error)
}

// Attempt is one live authorization attempt. At most one exists at a time;
// starting a new one replaces the prior state token.
type Attempt struct {
	Provider         string
	AuthorizationURL string
	State            string
}

// Authenticator owns the is-authenticated flag gating the rest of the app.
// Methods that hit the network are blocking and may be called from worker
// goroutines; state is guarded for that.
type Authenticator struct {
	mu      sync.Mutex
	backend Backend
	status  Status
	attempt *Attempt
}

func New(backend Backend) *Authenticator {
	return &Authenticator{backend: backend, status: StatusChecking}
}

func (a *Authenticator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Attempt returns a copy of the live attempt, if any.
func (a *Authenticator) Attempt() (Attempt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.attempt == nil {
		return Attempt{}, false
	}
	return *a.attempt, true
}

// CheckAuth probes the backend for existing valid credentials. Network
// failure counts as not authenticated (fail closed), never as a fatal
// error. An already-authenticated session is never reverted.
func (a *Authenticator) CheckAuth(ctx context.Context) bool {
	providers, err := a.backend.OAuthStatus(ctx)
	authenticated := err == nil && len(providers) > 0

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusAuthenticated {
		return true
	}
	if authenticated {
		a.status = StatusAuthenticated
		a.attempt = nil
	} else if a.status == StatusChecking {
		a.status = StatusUnauthenticated
	}
	return authenticated
}

// StartLogin requests an authorization URL plus anti-forgery state token
// and transitions to StatusAwaitingCode. Calling it again while an attempt
// is live replaces that attempt, invalidating any code tied to the old
// state token.
func (a *Authenticator) StartLogin(ctx context.Context, provider string) (Attempt, error) {
	authz, err := a.backend.Authorize(ctx, provider)
	if err != nil {
		return Attempt{}, err
	}

	att := Attempt{
		Provider:         provider,
		AuthorizationURL: authz.AuthorizationURL,
		State:            authz.State,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempt = &att
	a.status = StatusAwaitingCode
	return att, nil
}

// SubmitCode exchanges the pasted code against the live attempt. On success
// the attempt is consumed (single use) and the session becomes
// authenticated. A rejected exchange leaves the attempt open for retry.
func (a *Authenticator) SubmitCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	a.mu.Lock()
	if a.attempt == nil {
		a.mu.Unlock()
		return ErrInvalidAttempt
	}
	att := *a.attempt
	a.mu.Unlock()

	if code == "" {
		return ErrExchangeRejected
	}

	ok, err := a.backend.ExchangeCode(ctx, att.Provider, code, att.State)
	if err != nil {
		return err
	}
	if !ok {
		return ErrExchangeRejected
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempt = nil
	a.status = StatusAuthenticated
	return nil
}

// CancelAttempt discards the live attempt and returns to
// StatusUnauthenticated. No-op in any other state.
func (a *Authenticator) CancelAttempt() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusAwaitingCode {
		a.attempt = nil
		a.status = StatusUnauthenticated
	}
}
