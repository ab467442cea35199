package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
	"go.uber.org/zap"
)

// Login starts a session for form.Username.
//
// Unless Config.Login.VerifyCredentials is set, any username is accepted and
// the profile is derived from it. A fresh token and the profile are written
// together; when either write fails the previous values are restored and the
// in-memory session is left unchanged. With form.Remember the raw credential
// pair is stored for AutoLogin, otherwise any remembered pair is removed.
func (e *Engine) Login(ctx context.Context, form LoginForm) (session.Session, error) {
	if err := e.ready(); err != nil {
		return session.Session{}, err
	}

	sess, err := e.login(ctx, form)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, form.Username, err, nil)
		return session.Session{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, form.Username, nil, func() map[string]string {
		return map[string]string{"remember": strconv.FormatBool(form.Remember)}
	})
	return sess, nil
}

func (e *Engine) login(ctx context.Context, form LoginForm) (session.Session, error) {
	if err := e.validateForm(form); err != nil {
		return session.Session{}, err
	}

	profile := e.newProfile(form.Username)
	if e.config.Login.VerifyCredentials {
		rec, err := e.verifyCredentials(ctx, form.Username, form.Password)
		if err != nil {
			return session.Session{}, err
		}
		profile = rec.Profile()
	}

	token, err := e.jwtManager.CreateToken(form.Username)
	if err != nil {
		return session.Session{}, fmt.Errorf("create token: %w", err)
	}
	encodedProfile, err := session.EncodeProfile(profile)
	if err != nil {
		return session.Session{}, err
	}

	values := map[string]string{
		session.KeyToken:    token,
		session.KeyUserInfo: encodedProfile,
	}
	order := []string{session.KeyToken, session.KeyUserInfo}
	if form.Remember {
		remembered, err := session.EncodeRemembered(session.RememberedCredential{
			Username: form.Username,
			Password: form.Password,
		})
		if err != nil {
			return session.Session{}, err
		}
		values[session.KeyRememberedUser] = remembered
		order = append(order, session.KeyRememberedUser)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writeKeys(ctx, values, order); err != nil {
		return session.Session{}, err
	}
	if !form.Remember {
		if err := e.store.Remove(ctx, session.KeyRememberedUser); err != nil {
			e.logger.Warn("remove remembered credential failed", zap.String("username", form.Username), zap.Error(err))
		}
	}

	e.state = session.Session{Token: token, UserInfo: profile}
	return e.state, nil
}

func (e *Engine) verifyCredentials(ctx context.Context, username, pass string) (session.UserRecord, error) {
	users, err := e.loadUsers(ctx)
	if err != nil {
		return session.UserRecord{}, err
	}
	idx := session.FindUser(users, username)
	if idx < 0 {
		return session.UserRecord{}, ErrInvalidCredentials
	}
	ok, err := e.passwordHash.Verify(pass, users[idx].Password)
	if err != nil || !ok {
		return session.UserRecord{}, ErrInvalidCredentials
	}
	if e.config.Password.UpgradeOnLogin {
		e.upgradeHash(ctx, username, pass, users[idx].Password)
	}
	return users[idx], nil
}

// upgradeHash rehashes pass when the stored hash uses outdated parameters.
// Failures are logged and do not affect the login.
func (e *Engine) upgradeHash(ctx context.Context, username, pass, stored string) {
	needs, err := e.passwordHash.NeedsUpgrade(stored)
	if err != nil || !needs {
		return
	}
	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		e.logger.Warn("password rehash failed", zap.String("username", username), zap.Error(err))
		return
	}
	err = storage.Update(ctx, e.store, session.KeyUsers, func(current string, _ bool) (string, error) {
		users, err := session.DecodeUsers(current)
		if err != nil {
			return "", abortUpdate{err}
		}
		idx := session.FindUser(users, username)
		if idx < 0 || users[idx].Password != stored {
			return "", abortUpdate{errHashChanged}
		}
		users[idx].Password = hash
		next, err := session.EncodeUsers(users)
		if err != nil {
			return "", abortUpdate{err}
		}
		return next, nil
	})
	if err != nil && !errors.Is(err, errHashChanged) {
		e.logger.Warn("password rehash not stored", zap.String("username", username), zap.Error(err))
	}
}

var errHashChanged = errors.New("stored hash changed")

// writeKeys stores values in one step when the backend supports it.
// Otherwise keys are written in order and, on failure, the keys already
// written are restored to their previous values.
func (e *Engine) writeKeys(ctx context.Context, values map[string]string, order []string) error {
	if ms, ok := e.store.(storage.MultiSetter); ok {
		return storageErr(ms.SetMulti(ctx, values))
	}

	type prior struct {
		key    string
		value  string
		exists bool
	}
	written := make([]prior, 0, len(order))
	rollback := func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(written) - 1; i >= 0; i-- {
			p := written[i]
			var err error
			if p.exists {
				err = e.store.Set(rctx, p.key, p.value)
			} else {
				err = e.store.Remove(rctx, p.key)
			}
			if err != nil {
				e.logger.Error("session rollback failed", zap.String("key", p.key), zap.Error(err))
			}
		}
	}

	for _, key := range order {
		old, err := e.store.Get(ctx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			rollback()
			return storageErr(err)
		}
		p := prior{key: key, value: old, exists: err == nil}
		if err := e.store.Set(ctx, key, values[key]); err != nil {
			rollback()
			return storageErr(err)
		}
		written = append(written, p)
	}
	return nil
}

// RememberedUser returns the credential stored by a Login with Remember.
// It returns ErrNoRememberedSession when none is stored.
func (e *Engine) RememberedUser(ctx context.Context) (session.RememberedCredential, error) {
	if err := e.ready(); err != nil {
		return session.RememberedCredential{}, err
	}

	raw, err := e.store.Get(ctx, session.KeyRememberedUser)
	if errors.Is(err, storage.ErrNotFound) {
		return session.RememberedCredential{}, ErrNoRememberedSession
	}
	if err != nil {
		return session.RememberedCredential{}, storageErr(err)
	}
	cred, err := session.DecodeRemembered(raw)
	if err != nil {
		return session.RememberedCredential{}, err
	}
	if cred.Username == "" {
		return session.RememberedCredential{}, ErrNoRememberedSession
	}
	return cred, nil
}

// AutoLogin replays the remembered credential through Login. On failure
// the remembered credential is removed and the cause is returned joined
// with ErrAutoLoginFailed.
func (e *Engine) AutoLogin(ctx context.Context) (session.Session, error) {
	if err := e.ready(); err != nil {
		return session.Session{}, err
	}

	cred, err := e.RememberedUser(ctx)
	switch {
	case errors.Is(err, ErrNoRememberedSession), errors.Is(err, ErrStorageUnavailable):
		return session.Session{}, err
	case err != nil:
		return session.Session{}, e.autoLoginFailed(ctx, "", err)
	}

	sess, err := e.Login(ctx, LoginForm{
		Username: cred.Username,
		Password: cred.Password,
		Remember: true,
	})
	if err != nil {
		return session.Session{}, e.autoLoginFailed(ctx, cred.Username, err)
	}

	e.metricInc(MetricAutoLoginSuccess)
	e.emitAudit(ctx, auditEventAutoLoginSuccess, true, cred.Username, nil, nil)
	return sess, nil
}

func (e *Engine) autoLoginFailed(ctx context.Context, username string, cause error) error {
	if err := e.store.Remove(ctx, session.KeyRememberedUser); err != nil {
		e.logger.Warn("remove remembered credential failed", zap.String("username", username), zap.Error(err))
	}
	e.metricInc(MetricAutoLoginFailure)
	e.emitAudit(ctx, auditEventAutoLoginFailure, false, username, cause, nil)
	return errors.Join(ErrAutoLoginFailed, cause)
}
