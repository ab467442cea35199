package goAdmin

import "errors"

var (
	// ErrUsernameExists is returned by Register when the username is taken.
	ErrUsernameExists = errors.New("username already exists")
	// ErrUserNotFound is returned by UpdatePassword when the current user has no record.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongOldPassword is returned by UpdatePassword when the old password does not match.
	ErrWrongOldPassword = errors.New("old password incorrect")
	// ErrProfileParseFailure reports a stored profile that cannot be used.
	ErrProfileParseFailure = errors.New("stored profile unreadable")
	// ErrMissingCredential reports an absent token or profile.
	ErrMissingCredential = errors.New("session credential missing")
	// ErrNoRememberedSession is returned by AutoLogin when nothing was remembered.
	ErrNoRememberedSession = errors.New("no remembered session")
	// ErrAutoLoginFailed wraps the cause of a failed auto-login replay.
	ErrAutoLoginFailed = errors.New("auto-login failed")
	// ErrInvalidForm reports a request form that failed validation.
	ErrInvalidForm = errors.New("invalid form")
	// ErrInvalidCredentials is returned by Login when credential verification is on and fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordPolicy reports a password rejected by the hasher's length limits.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrTokenInvalid reports a stored token that fails verification.
	ErrTokenInvalid = errors.New("session token invalid")
	// ErrStorageUnavailable wraps durable storage failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrEngineNotReady is returned when an Engine method runs on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
