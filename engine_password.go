package goAdmin

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
	"go.uber.org/zap"
)

// UpdatePassword changes the password of the logged-in user.
//
// The old password must verify against the stored hash. On success the new
// hash is stored and, when a remembered credential exists for the same
// user, its password is replaced with the new one. On any error the user
// table and the remembered credential are left unchanged.
func (e *Engine) UpdatePassword(ctx context.Context, form PasswordForm) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	username := e.state.UserInfo.Username
	err := e.updatePassword(ctx, username, form)
	e.mu.Unlock()

	switch {
	case err == nil:
		e.metricInc(MetricPasswordChangeSuccess)
		e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, username, nil, nil)
	case errors.Is(err, ErrWrongOldPassword):
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, username, err, nil)
	default:
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, username, err, nil)
	}
	return err
}

func (e *Engine) updatePassword(ctx context.Context, username string, form PasswordForm) error {
	if err := e.validateForm(form); err != nil {
		return err
	}
	if username == "" {
		return ErrUserNotFound
	}

	err := storage.Update(ctx, e.store, session.KeyUsers, func(current string, _ bool) (string, error) {
		users, err := session.DecodeUsers(current)
		if err != nil {
			return "", abortUpdate{err}
		}
		idx := session.FindUser(users, username)
		if idx < 0 {
			return "", abortUpdate{ErrUserNotFound}
		}
		ok, err := e.passwordHash.Verify(form.OldPassword, users[idx].Password)
		if err != nil || !ok {
			return "", abortUpdate{ErrWrongOldPassword}
		}
		hash, err := e.hashPassword(form.NewPassword)
		if err != nil {
			return "", abortUpdate{err}
		}
		users[idx].Password = hash
		next, err := session.EncodeUsers(users)
		if err != nil {
			return "", abortUpdate{err}
		}
		return next, nil
	})
	if err := updateErr(err); err != nil {
		return err
	}

	e.refreshRemembered(ctx, username, form.NewPassword)
	return nil
}

// refreshRemembered rewrites the remembered password for username. The
// password change itself has already been stored, so failures are logged.
func (e *Engine) refreshRemembered(ctx context.Context, username, newPassword string) {
	raw, err := e.store.Get(ctx, session.KeyRememberedUser)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Warn("read remembered credential failed", zap.String("username", username), zap.Error(err))
		return
	}
	cred, err := session.DecodeRemembered(raw)
	if err != nil || cred.Username != username {
		return
	}

	cred.Password = newPassword
	encoded, err := session.EncodeRemembered(cred)
	if err == nil {
		err = e.store.Set(ctx, session.KeyRememberedUser, encoded)
	}
	if err != nil {
		e.logger.Warn("update remembered credential failed", zap.String("username", username), zap.Error(err))
	}
}
