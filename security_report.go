package goAdmin

import "time"

// SecurityReport summarizes the security-relevant settings of a built engine.
type SecurityReport struct {
	SigningAlgorithm    string
	GeneratedSigningKey bool
	TokenTTL            time.Duration
	VerifyToken         bool
	VerifyCredentials   bool
	UpgradeOnLogin      bool
	Argon2              PasswordConfigReport
	AuditEnabled        bool
	MetricsEnabled      bool
	Warnings            LintResult
}

// PasswordConfigReport is the argon2id parameter set in use.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm:    e.config.JWT.SigningMethod,
		GeneratedSigningKey: e.config.JWT.SigningMethod == "hs256" && len(e.config.JWT.PrivateKey) == 0,
		TokenTTL:            e.config.JWT.TTL,
		VerifyToken:         e.config.Session.VerifyToken,
		VerifyCredentials:   e.config.Login.VerifyCredentials,
		UpgradeOnLogin:      e.config.Password.UpgradeOnLogin,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		AuditEnabled:   e.config.Audit.Enabled,
		MetricsEnabled: e.config.Metrics.Enabled,
		Warnings:       e.config.Lint(),
	}
}
