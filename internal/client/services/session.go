// Package services contains the client-side application services.
//
// SessionManager is the authentication state store: it owns the in-memory
// session (authenticated flag and current user) and the persisted token
// record, and drives the login, account creation, session check and logout
// flows against the Auth API.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/token"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const DefaultRequestTimeout = 10 * time.Second

// State is a snapshot of the session.
type State struct {
	IsAuthenticated bool
	User            *models.User
}

type SessionManager struct {
	client  client.Client
	store   TokenStore
	clock   clockwork.Clock
	log     logging.Logger
	timeout time.Duration

	// flow admits one credential exchange at a time.
	flow chan struct{}

	mu    sync.Mutex
	state State
	// gen changes on every session write so an in-flight check can tell
	// whether its result is still relevant.
	gen uint64

	checks singleflight.Group
}

type Option func(*SessionManager)

func WithClock(c clockwork.Clock) Option {
	return func(m *SessionManager) { m.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(m *SessionManager) { m.log = l }
}

// WithRequestTimeout bounds every Auth API call. Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *SessionManager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewSessionManager returns a manager in the not-authenticated state. It does
// not touch the store; call CheckAuth to restore a persisted session.
func NewSessionManager(c client.Client, store TokenStore, opts ...Option) *SessionManager {
	m := &SessionManager{
		client:  c,
		store:   store,
		clock:   clockwork.NewRealClock(),
		log:     logging.Discard(),
		timeout: DefaultRequestTimeout,
		flow:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("module", "session")
	return m
}

// State returns a copy of the current session.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *SessionManager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsAuthenticated
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (m *SessionManager) CurrentUser() *models.User {
	return m.State().User
}

// Login exchanges credentials for a session token. Any failure is reported as
// ErrLoginFailed and leaves the session untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, "login", ErrLoginFailed, m.client.Login, email, password)
}

// CreateAccount registers a new account and signs in with it. Any failure is
// reported as ErrAccountCreationFailed and leaves the session untouched.
func (m *SessionManager) CreateAccount(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, "create_account", ErrAccountCreationFailed, m.client.CreateAccount, email, password)
}

type credentialsCall func(ctx context.Context, email, password string) (*client.AuthResult, error)

func (m *SessionManager) authenticate(ctx context.Context, op string, failure error, call credentialsCall, email, password string) error {
	log := m.log.With("op", op, "email", email)

	select {
	case m.flow <- struct{}{}:
		defer func() { <-m.flow }()
	case <-ctx.Done():
		log.Error(ctx, "gave up waiting for previous request", "error", ctx.Err())
		return failure
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	res, err := call(reqCtx, email, password)
	cancel()
	if err != nil {
		log.Error(ctx, "auth api request failed", "error", err)
		return failure
	}

	expiresAt, err := token.ExpiresAtMillis(res.Token)
	if err != nil {
		log.Error(ctx, "cannot read token expiry", "error", err)
		return failure
	}

	user := res.User
	if err := m.setSession(ctx, TokenRecord{Token: res.Token, ExpiresAt: expiresAt}, &user); err != nil {
		log.Error(ctx, "cannot persist token", "error", err)
		return failure
	}

	log.Info(ctx, "authenticated", "expires_at", time.UnixMilli(expiresAt).UTC())
	return nil
}

// setSession persists rec before publishing the new state, so a failed write
// leaves both untouched.
func (m *SessionManager) setSession(ctx context.Context, rec TokenRecord, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, rec); err != nil {
		return err
	}
	m.state = State{IsAuthenticated: true, User: user}
	m.gen++
	return nil
}

// Logout clears the session and the persisted record. Persistence failures
// are logged; the in-memory session is cleared regardless.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked(ctx)
	m.log.Info(ctx, "logged out")
}

func (m *SessionManager) clearLocked(ctx context.Context) {
	m.state = State{}
	m.gen++

	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.log.Error(ctx, "cannot clear stored token", "error", err)
	}
}

// logoutIfCurrent logs out unless the session changed since gen was taken.
func (m *SessionManager) logoutIfCurrent(ctx context.Context, gen uint64, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		m.log.Debug(ctx, "session changed during check, keeping it", "reason", reason)
		return
	}
	m.clearLocked(ctx)
	m.log.Info(ctx, "session ended", "reason", reason)
}

// CheckAuth restores or invalidates the persisted session. It never fails:
// with no stored token it does nothing, an expired or rejected token logs the
// user out, and a valid one marks the session authenticated.
//
// Concurrent calls share a single check. A caller whose ctx ends early
// returns immediately while the shared check runs to completion.
func (m *SessionManager) CheckAuth(ctx context.Context) {
	ch := m.checks.DoChan("check", func() (any, error) {
		m.checkAuth(context.WithoutCancel(ctx))
		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func (m *SessionManager) checkAuth(ctx context.Context) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	rec, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
		m.log.Debug(ctx, "no stored session")
		return
	case errors.Is(err, ErrInvalidExpiration):
		m.log.Warn(ctx, "stored session is unreadable", "error", err)
		m.logoutIfCurrent(ctx, gen, "invalid expiration")
		return
	case err != nil:
		m.log.Warn(ctx, "cannot read stored session", "error", err)
		return
	}

	if rec.Expired(m.clock.Now()) {
		m.logoutIfCurrent(ctx, gen, "token expired")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	user, err := m.client.CheckAuth(reqCtx, rec.Token)
	cancel()
	if err == nil && user == nil {
		err = client.ErrMalformedResponse
	}
	if err != nil {
		m.log.Warn(ctx, "session check failed", "error", err)
		m.logoutIfCurrent(ctx, gen, "check rejected")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		m.log.Debug(ctx, "session changed during check, discarding result")
		return
	}
	u := *user
	m.state = State{IsAuthenticated: true, User: &u}
	m.log.Info(ctx, "session restored", "email", u.Email)
}
