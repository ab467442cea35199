package goAdmin

import (
	"fmt"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintHigh:
		return "high"
	case LintWarn:
		return "warn"
	default:
		return "info"
	}
}

// LintWarning is one advisory finding about a valid configuration.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings from [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// AtLeast returns the warnings at or above min.
func (r LintResult) AtLeast(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

const (
	lintMaxLeeway        = time.Minute
	lintMaxTokenTTL      = 30 * 24 * time.Hour
	lintMinArgon2Memory  = 19 * 1024
	lintMinPasswordBytes = 8
)

// Lint reports settings that pass Validate but weaken the console. It does
// not validate; call Validate first.
func (c Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Login.VerifyCredentials {
		add("verify_credentials_disabled", LintHigh, "Login accepts any username without checking the password")
	}
	if !c.Session.VerifyToken {
		add("verify_token_disabled", LintWarn, "CheckLogin trusts any stored token without verifying its signature")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		add("signing_key_generated", LintWarn, "no hs256 secret configured; tokens stop verifying after restart")
	}
	if c.JWT.Leeway > lintMaxLeeway {
		add("leeway_large", LintInfo, "JWT leeway %s exceeds %s", c.JWT.Leeway, lintMaxLeeway)
	}
	if c.JWT.TTL > lintMaxTokenTTL {
		add("token_ttl_long", LintInfo, "token TTL %s exceeds %s", c.JWT.TTL, lintMaxTokenTTL)
	}
	if c.Password.Memory < lintMinArgon2Memory {
		add("argon2_memory_low", LintWarn, "argon2 memory %d KiB is below %d KiB", c.Password.Memory, lintMinArgon2Memory)
	}
	if c.Password.MinPasswordBytes < lintMinPasswordBytes {
		add("password_min_short", LintInfo, "minimum password length %d is below %d", c.Password.MinPasswordBytes, lintMinPasswordBytes)
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	}

	return out
}
