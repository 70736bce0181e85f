package client

import (
	"context"
	"errors"
	"sync"
)

// State is the session lifecycle state
type State int

const (
	// StateUninitialized means Restore has not been attempted yet
	StateUninitialized State = iota
	// StateLoading means a restore or login is in flight
	StateLoading
	// StateAuthenticated means a user is logged in
	StateAuthenticated
	// StateAnonymous means the session resolved to "no user"
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// FlowStatus tracks a one-shot async flow (password reset, email
// verification) through idle -> loading -> succeeded | failed.
type FlowStatus int

const (
	FlowIdle FlowStatus = iota
	FlowLoading
	FlowSucceeded
	FlowFailed
)

func (f FlowStatus) String() string {
	switch f {
	case FlowIdle:
		return "idle"
	case FlowLoading:
		return "loading"
	case FlowSucceeded:
		return "succeeded"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session drives the client-side auth lifecycle. It resolves exactly once
// per Restore: the Loaded flag latches true after the first restore attempt
// completes, whatever the outcome, and only a full Reset clears it again.
// All methods are safe for concurrent use.
type Session struct {
	client *Client

	mu     sync.RWMutex
	state  State
	user   *User
	loaded bool

	captchaStale bool

	resetFlow  FlowStatus
	verifyFlow FlowStatus
}

// NewSession creates a session over the given client
func NewSession(client *Client) *Session {
	return &Session{
		client: client,
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loaded reports whether the initial restore has completed. Route guards
// must show a loading screen until this is true.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// User returns the authenticated user, or nil
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Restore resolves the session synchronously from the stored {token, role}
// snapshot, with no network round-trip. Both keys present means
// Authenticated; a cold start with valid stored credentials renders the
// protected view even when the server is unreachable. A later Validate
// reconciles the snapshot with the server.
func (s *Session) Restore() {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	token, tokenErr := s.client.store.Get(AccessTokenKey)
	role, roleErr := s.client.store.Get(RoleKey)

	if tokenErr != nil || token == "" {
		s.resolveAnonymous(false)
		return
	}
	if roleErr != nil {
		if errors.Is(roleErr, ErrKeyNotFound) {
			// Half a snapshot is a stale write; start over
			s.resolveAnonymous(true)
			return
		}
		s.resolveAnonymous(false)
		return
	}

	s.resolveAuthenticated(&User{Role: role})
}

// Validate reconciles a restored session with the server. A live access
// token fills in the full user; an expired one is refreshed once; a rejected
// refresh drops the session to Anonymous with the dead credentials cleared.
// Transport failures keep the current state and credentials untouched.
func (s *Session) Validate(ctx context.Context) error {
	user, err := s.client.me(ctx)
	if err == nil {
		s.resolveAuthenticated(user)
		// The server is authoritative for the role snapshot
		_ = s.client.store.Set(RoleKey, user.Role)
		return nil
	}

	if !IsUnauthorized(err) {
		return err
	}

	// Access token rejected: try the refresh token once
	user, refreshErr := s.client.refresh(ctx)
	if refreshErr != nil {
		s.resolveAnonymous(true)
		if IsUnauthorized(refreshErr) {
			return nil
		}
		return refreshErr
	}

	s.resolveAuthenticated(user)
	return nil
}

// Login authenticates and moves the session to Authenticated
func (s *Session) Login(ctx context.Context, username, password, captchaToken string) (*User, error) {
	s.mu.Lock()
	s.state = StateLoading
	s.captchaStale = false
	s.mu.Unlock()

	user, err := s.client.login(ctx, username, password, captchaToken)
	if err != nil {
		// A consumed CAPTCHA token can not be replayed; the widget must
		// issue a fresh one before the next attempt
		s.mu.Lock()
		s.captchaStale = captchaToken != ""
		s.mu.Unlock()

		s.resolveAnonymous(false)
		return nil, err
	}

	s.resolveAuthenticated(user)
	return user, nil
}

// NeedsFreshCaptcha reports whether the last login attempt consumed a
// CAPTCHA token without opening a session. Callers reset their CAPTCHA
// widget when this is true.
func (s *Session) NeedsFreshCaptcha() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captchaStale
}

// Logout revokes the session server-side and moves to Anonymous. The
// stored credentials are cleared no matter what the server said: a failed
// revocation never leaves the client logged in.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.logout(ctx)
	s.resolveAnonymous(true)
	return err
}

// LogoutAll revokes every session for the user. Local credentials are
// cleared unconditionally, like Logout.
func (s *Session) LogoutAll(ctx context.Context) error {
	err := s.client.logoutAll(ctx)
	s.resolveAnonymous(true)
	return err
}

// Reset returns the session to Uninitialized and clears credentials.
// The next Restore starts from scratch.
func (s *Session) Reset() {
	s.client.clearTokens()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUninitialized
	s.user = nil
	s.loaded = false
	s.captchaStale = false
	s.resetFlow = FlowIdle
	s.verifyFlow = FlowIdle
}

// ============================================================
// One-shot flows
// ============================================================

// PasswordResetStatus returns the password reset flow status
func (s *Session) PasswordResetStatus() FlowStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resetFlow
}

// RequestPasswordReset starts the password reset flow
func (s *Session) RequestPasswordReset(ctx context.Context, email string) error {
	s.setResetFlow(FlowLoading)

	if err := s.client.RequestPasswordReset(ctx, email); err != nil {
		s.setResetFlow(FlowFailed)
		return err
	}

	s.setResetFlow(FlowSucceeded)
	return nil
}

// ConfirmPasswordReset completes the password reset flow. On success the
// session drops to Anonymous: the server revoked every session, so stored
// credentials are dead.
func (s *Session) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	s.setResetFlow(FlowLoading)

	if err := s.client.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		s.setResetFlow(FlowFailed)
		return err
	}

	s.setResetFlow(FlowSucceeded)
	s.resolveAnonymous(true)
	return nil
}

// EmailVerificationStatus returns the email verification flow status
func (s *Session) EmailVerificationStatus() FlowStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifyFlow
}

// ConfirmEmailVerification completes the email verification flow
func (s *Session) ConfirmEmailVerification(ctx context.Context, token string) error {
	s.mu.Lock()
	s.verifyFlow = FlowLoading
	s.mu.Unlock()

	if err := s.client.ConfirmEmailVerification(ctx, token); err != nil {
		s.mu.Lock()
		s.verifyFlow = FlowFailed
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.verifyFlow = FlowSucceeded
	if s.user != nil {
		s.user.EmailVerified = true
	}
	s.mu.Unlock()
	return nil
}

// ============================================================
// Internal state transitions
// ============================================================

func (s *Session) resolveAuthenticated(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.user = user
	s.loaded = true
}

func (s *Session) resolveAnonymous(clearTokens bool) {
	if clearTokens {
		s.client.clearTokens()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.user = nil
	s.loaded = true
}

func (s *Session) setResetFlow(status FlowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetFlow = status
}
