package integration

import (
	"context"
	"fmt"

	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// Login exchanges credentials for a token, persists it and schedules the
// one-shot availability check. It does not sync data.
func (l *Layer) Login(ctx context.Context, email, password string) error {
	const op = "login"
	done := l.begin()
	defer done()

	data, err := l.backend.Login(ctx, email, password)
	if err != nil {
		return l.fail(op, err)
	}
	if err := l.authenticate(data.Token); err != nil {
		return l.fail(op, err)
	}
	logger.Info("Logged in", "email", email)
	return nil
}

// Register creates an account and signs in with the returned token.
func (l *Layer) Register(ctx context.Context, req models.RegisterRequest) error {
	const op = "register"
	done := l.begin()
	defer done()

	data, err := l.backend.Register(ctx, req)
	if err != nil {
		return l.fail(op, err)
	}
	if err := l.authenticate(data.Token); err != nil {
		return l.fail(op, err)
	}
	logger.Info("Registered", "email", req.Email)
	return nil
}

// VerifyEmail asks the backend to mail a verification code to email.
func (l *Layer) VerifyEmail(ctx context.Context, email string) error {
	done := l.begin()
	defer done()

	if err := l.backend.VerifyEmail(ctx, email); err != nil {
		return l.fail("verify email", err)
	}
	return nil
}

// RefreshToken replaces the stored token with a newly issued one.
func (l *Layer) RefreshToken(ctx context.Context) error {
	const op = "refresh token"
	g := l.guard(nil)
	if err := l.requireAuth(op); err != nil {
		return err
	}
	done := l.begin()
	defer done()

	data, err := l.backend.RefreshToken(ctx)
	if err != nil {
		return l.failIn(g, op, err)
	}
	// stored under the state lock so a concurrent logout cannot be undone
	var setErr error
	if !l.commit(g, func(*State) { setErr = l.tokens.Set(data.Token) }) {
		return apperrors.ErrDiscarded
	}
	if setErr != nil {
		return l.failIn(g, op, fmt.Errorf("failed to store token: %w", setErr))
	}
	return nil
}

// Logout clears the token, the cache and all published state, and re-arms
// the one-shot availability check for the next login.
func (l *Layer) Logout() error {
	err := l.resetSession(true)
	if err != nil {
		logger.Error("Failed to clear token", "error", err)
	}
	logger.Info("Logged out")
	return err
}

// RefreshAuth re-reads the token store. A change to unauthenticated resets the
// session as Logout does; a change to authenticated schedules the
// availability check. It returns the current authentication state.
func (l *Layer) RefreshAuth() bool {
	authed := l.IsAuthenticated()

	l.mu.Lock()
	was := l.state.IsAuthenticated
	l.mu.Unlock()

	switch {
	case was && !authed:
		l.resetSession(false)
	case !was && authed:
		l.update(func(s *State) { s.IsAuthenticated = true })
		l.scheduleDataCheck(0)
	}
	return authed
}

func (l *Layer) authenticate(token string) error {
	if err := l.tokens.Set(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	l.update(func(s *State) {
		l.rearmDataCheckLocked()
		s.IsAuthenticated = true
		s.HasEmptyData = false
		s.DataCheckCompleted = false
	})
	l.scheduleDataCheck(l.settleDelay)
	return nil
}

// resetSession drops every cached and published value and ends the session,
// so results still in flight are discarded.
func (l *Layer) resetSession(clearToken bool) error {
	var err error
	l.update(func(s *State) {
		if clearToken && l.tokens != nil {
			err = l.tokens.Clear()
		}
		l.cache.Clear()
		l.rearmDataCheckLocked()
		l.session++
		l.loading = 0
		*s = newState(false)
	})
	return err
}

// rearmDataCheckLocked cancels any scheduled or running availability check
// so the next authentication runs a fresh one. l.mu must be held.
func (l *Layer) rearmDataCheckLocked() {
	if l.checkTimer != nil {
		l.checkTimer.Stop()
		l.checkTimer = nil
	}
	l.checkPending = false
	l.checkDone = false
	l.checkGen++
}
