package goAdmin

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
	"go.uber.org/zap"
)

var sessionKeys = []string{session.KeyToken, session.KeyUserInfo, session.KeyRememberedUser}

// Logout clears the in-memory session and removes the token, profile and
// remembered credential from storage. Logging out twice is not an error.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	username := e.state.UserInfo.Username
	e.state = session.Session{}
	err := storageErr(e.store.Remove(ctx, sessionKeys...))
	e.mu.Unlock()

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, err == nil, username, err, nil)
	return err
}

// CheckLogin reports whether a usable session is stored. See CheckLoginWithReason.
func (e *Engine) CheckLogin(ctx context.Context) bool {
	ok, _ := e.CheckLoginWithReason(ctx)
	return ok
}

// CheckToken runs CheckLogin on behalf of a caller that presented token and
// returns the session only when token is the current session token. An
// empty token returns false without touching storage.
func (e *Engine) CheckToken(ctx context.Context, token string) (session.Session, bool) {
	if token == "" || !e.CheckLogin(ctx) {
		return session.Session{}, false
	}

	sess := e.Session()
	if subtle.ConstantTimeCompare([]byte(sess.Token), []byte(token)) != 1 {
		return session.Session{}, false
	}
	return sess, true
}

// CheckLoginWithReason reads the stored token and profile. When both are
// present and the profile has a username (and, with Session.VerifyToken,
// the token verifies for that username) the in-memory session is refreshed
// and true is returned. Otherwise all session state is cleared exactly like
// Logout and the reason is returned.
//
// A storage failure is reported without clearing anything.
func (e *Engine) CheckLoginWithReason(ctx context.Context) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}

	start := time.Now()
	defer func() {
		e.metricObserve(MetricCheckLoginLatency, time.Since(start))
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.readSession(ctx)
	if err == nil {
		e.state = sess
		e.metricInc(MetricCheckLoginSuccess)
		return true, nil
	}

	e.metricInc(MetricCheckLoginFailure)
	if errors.Is(err, ErrStorageUnavailable) {
		return false, err
	}

	username := e.state.UserInfo.Username
	e.state = session.Session{}
	if rmErr := e.store.Remove(ctx, sessionKeys...); rmErr != nil {
		e.logger.Warn("clear session failed", zap.Error(rmErr))
	}
	e.metricInc(MetricSessionCleared)
	e.emitAudit(ctx, auditEventSessionCleared, false, username, err, nil)
	e.logger.Debug("session cleared", zap.String("username", username), zap.Error(err))
	return false, err
}

func (e *Engine) readSession(ctx context.Context) (session.Session, error) {
	token, err := e.store.Get(ctx, session.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, ErrMissingCredential
	}
	if err != nil {
		return session.Session{}, storageErr(err)
	}
	info, err := e.store.Get(ctx, session.KeyUserInfo)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, ErrMissingCredential
	}
	if err != nil {
		return session.Session{}, storageErr(err)
	}
	if token == "" || info == "" {
		return session.Session{}, ErrMissingCredential
	}

	profile, err := session.DecodeProfile(info)
	if err != nil {
		return session.Session{}, errors.Join(ErrProfileParseFailure, err)
	}

	if e.config.Session.VerifyToken {
		if _, err := e.jwtManager.ParseFor(token, profile.Username); err != nil {
			return session.Session{}, errors.Join(ErrTokenInvalid, err)
		}
	}

	return session.Session{Token: token, UserInfo: profile}, nil
}

// Hydrate loads the stored session into memory without validating or
// clearing anything. A missing or unreadable profile leaves the in-memory
// session empty. Only storage failures are returned.
func (e *Engine) Hydrate(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.readSession(ctx)
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if err != nil {
		e.state = session.Session{}
		return nil
	}
	e.state = sess
	return nil
}

// SetUserInfo replaces the current user's profile in memory and in storage.
// It requires a session, and the username cannot change.
func (e *Engine) SetUserInfo(ctx context.Context, profile session.Profile) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsAuthenticated() {
		return ErrMissingCredential
	}
	if profile.Username == "" {
		profile.Username = e.state.UserInfo.Username
	}
	if profile.Username != e.state.UserInfo.Username {
		return ErrInvalidForm
	}

	encoded, err := session.EncodeProfile(profile)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, session.KeyUserInfo, encoded); err != nil {
		return storageErr(err)
	}
	e.state.UserInfo = profile
	e.emitAudit(ctx, auditEventProfileUpdated, true, profile.Username, nil, nil)
	return nil
}

// Users returns the user table with password hashes removed.
func (e *Engine) Users(ctx context.Context) ([]session.UserRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	users, err := e.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
