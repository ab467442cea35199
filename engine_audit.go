package goAdmin

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventRegisterDuplicate        = "register_duplicate"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventLogout                   = "logout"
	auditEventSessionCleared           = "session_cleared"
	auditEventAutoLoginSuccess         = "auto_login_success"
	auditEventAutoLoginFailure         = "auto_login_failure"
	auditEventProfileUpdated           = "profile_updated"
)

// AuditErrorCode is the stable error string placed in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrInvalidForm        AuditErrorCode = "invalid_form"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrWrongOldPassword   AuditErrorCode = "wrong_old_password"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrMissingCredential  AuditErrorCode = "missing_credential"
	auditErrProfileCorrupt     AuditErrorCode = "profile_corrupt"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrNoRemembered       AuditErrorCode = "no_remembered_session"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Username:  username,
		Namespace: e.config.Session.Namespace,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrStorageUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrInvalidForm):
		return auditErrInvalidForm
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUsernameExists):
		return auditErrDuplicate
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrWrongOldPassword):
		return auditErrWrongOldPassword
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrMissingCredential):
		return auditErrMissingCredential
	case errors.Is(err, ErrProfileParseFailure):
		return auditErrProfileCorrupt
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrNoRememberedSession):
		return auditErrNoRemembered
	default:
		return auditErrInternal
	}
}

// ErrorCode maps an engine error to the stable code used in audit events.
// It returns "" for a nil error.
func ErrorCode(err error) string {
	return string(auditErrorCode(err))
}
