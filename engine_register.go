package goAdmin

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
)

// Register appends a user record for form.Username with a hashed password.
// The user table is changed through a single atomic update, so two
// concurrent registrations of one username produce exactly one record and
// a duplicate leaves the table untouched.
func (e *Engine) Register(ctx context.Context, form RegisterForm) error {
	if err := e.ready(); err != nil {
		return err
	}

	err := e.register(ctx, form)
	switch {
	case err == nil:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, form.Username, nil, nil)
	case errors.Is(err, ErrUsernameExists):
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, form.Username, err, nil)
	default:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, form.Username, err, nil)
	}
	return err
}

func (e *Engine) register(ctx context.Context, form RegisterForm) error {
	if err := e.validateForm(form); err != nil {
		return err
	}

	hash, err := e.hashPassword(form.Password)
	if err != nil {
		return err
	}

	record := session.UserRecord{
		Username:   form.Username,
		Password:   hash,
		CreateTime: time.Now().UnixMilli(),
		Avatar:     e.config.Session.DefaultAvatar,
		Nickname:   form.Username,
	}

	err = storage.Update(ctx, e.store, session.KeyUsers, func(current string, _ bool) (string, error) {
		users, err := session.DecodeUsers(current)
		if err != nil {
			return "", abortUpdate{err}
		}
		if session.FindUser(users, form.Username) >= 0 {
			return "", abortUpdate{ErrUsernameExists}
		}
		next, err := session.EncodeUsers(append(users, record))
		if err != nil {
			return "", abortUpdate{err}
		}
		return next, nil
	})
	return updateErr(err)
}

func (e *Engine) hashPassword(pass string) (string, error) {
	hash, err := e.passwordHash.Hash(pass)
	if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
		return "", errors.Join(ErrPasswordPolicy, err)
	}
	return hash, err
}
