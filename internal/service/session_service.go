package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/observability/metrics"
)

const minCredentialLength = 3

// Accepted demo credentials. Real credential storage is out of scope for
// this deployment; every directory user logs in with one of these.
var acceptedCredentials = []string{"password", "demo"}

// SessionService owns the authenticated identity. It validates credentials
// against the user directory, persists the session across restarts, and
// exposes login/logout plus read-only accessors.
//
// Accessors are race-free, but the login round trip itself is not mutually
// exclusive: if two logins overlap, the last one to complete wins the
// current-user slot. Callers are expected to serialize submissions.
type SessionService struct {
	directory domain.UserDirectory
	sessions  domain.SessionStore
	logger    *slog.Logger
	delay     time.Duration
	sleep     func(context.Context, time.Duration)

	mu           sync.RWMutex
	currentUser  *domain.User
	initializing bool
}

// NewSessionService creates a session service. delay is the fixed simulated
// latency applied to every login attempt.
func NewSessionService(directory domain.UserDirectory, sessions domain.SessionStore, logger *slog.Logger, delay time.Duration) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		directory:    directory,
		sessions:     sessions,
		logger:       logger,
		delay:        delay,
		sleep:        sleepContext,
		initializing: true,
	}
}

// Initialize runs once at process start and attempts to restore a persisted
// session. A missing, unreadable, or stale record is healed silently: the
// store is wiped and the service stays unauthenticated. No error is ever
// surfaced to the caller.
func (s *SessionService) Initialize(ctx context.Context) {
	defer s.setInitializing(false)

	stored, err := s.sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			metrics.ObserveSessionRestore("none")
			return
		}
		s.logger.Warn("discarding unreadable session record", slog.String("error", err.Error()))
		s.wipeStore(ctx)
		metrics.ObserveSessionRestore("corrupt")
		return
	}

	// The directory is authoritative; the persisted copy only carries the id.
	user, err := s.directory.FindByID(ctx, stored.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("stored session references unknown user", slog.String("user_id", stored.ID))
			s.wipeStore(ctx)
			metrics.ObserveSessionRestore("stale")
			return
		}
		// Transient directory failure: keep the stored record for next start.
		s.logger.Error("directory lookup failed during restore", slog.String("error", err.Error()))
		metrics.ObserveSessionRestore("error")
		return
	}

	s.setCurrentUser(user)
	metrics.ObserveSessionRestore("restored")
	s.logger.Info("session restored",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
}

// Login validates the identifier and credential, in that order, and on
// success adopts and persists the resolved user. The three failure kinds
// carry distinct user-facing messages.
func (s *SessionService) Login(ctx context.Context, identifier, credential string) (*domain.User, error) {
	s.setInitializing(true)
	defer s.setInitializing(false)

	// Models the latency of a real credential check.
	s.sleep(ctx, s.delay)

	user, err := s.directory.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Info("login attempt for unknown user", slog.String("identifier", identifier))
			metrics.ObserveLogin("user_not_found")
			return nil, domain.ErrUserNotFound
		}
		metrics.ObserveLogin("error")
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if len(credential) < minCredentialLength {
		metrics.ObserveLogin("credential_too_short")
		return nil, domain.ErrCredentialTooShort
	}

	if !credentialAccepted(credential) {
		s.logger.Info("login failed with wrong password", slog.String("identifier", identifier))
		metrics.ObserveLogin("invalid_credential")
		return nil, domain.ErrInvalidCredential
	}

	s.setCurrentUser(user)
	if err := s.sessions.Save(ctx, user); err != nil {
		// The login itself succeeded; a failed persist only costs the
		// restore on the next start.
		s.logger.Warn("failed to persist session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	metrics.ObserveLogin("success")
	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Logout clears the current user and erases the persisted session. Calling
// it while logged out is a no-op.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.currentUser != nil
	s.currentUser = nil
	s.mu.Unlock()

	s.wipeStore(ctx)
	metrics.SetSessionActive(false)

	if wasAuthenticated {
		s.logger.Info("user logged out")
	}
}

// CurrentUser returns a snapshot of the authenticated user, or nil.
func (s *SessionService) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	u := *s.currentUser
	return &u
}

// IsAuthenticated reports whether a user is logged in.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser != nil
}

// Initializing reports whether a restore or login is in flight.
func (s *SessionService) Initializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

func (s *SessionService) setCurrentUser(user *domain.User) {
	s.mu.Lock()
	s.currentUser = user
	s.mu.Unlock()
	metrics.SetSessionActive(user != nil)
}

func (s *SessionService) setInitializing(v bool) {
	s.mu.Lock()
	s.initializing = v
	s.mu.Unlock()
}

func (s *SessionService) wipeStore(ctx context.Context) {
	if err := s.sessions.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear session store", slog.String("error", err.Error()))
	}
}

func credentialAccepted(credential string) bool {
	for _, accepted := range acceptedCredentials {
		if credential == accepted {
			return true
		}
	}
	return false
}

// sleepContext waits for d but stops early if ctx is done. The caller
// proceeds either way; login is not cancellable once issued.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
