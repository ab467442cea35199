package goAdmin

import (
	"io"

	internalaudit "github.com/MrEthical07/goAdmin/internal/audit"
	internalmetrics "github.com/MrEthical07/goAdmin/internal/metrics"
	"go.uber.org/zap"
)

// LoginForm is the login request. Remember asks the engine to keep the
// credential pair for AutoLogin.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// RegisterForm is the registration request. Password length is limited
// only by Config.Password.
type RegisterForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// PasswordForm is the password change request for the logged-in user.
type PasswordForm struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that logs events through a zap logger.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] logging under the "audit" name.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess             = internalmetrics.MetricLoginSuccess
	MetricLoginFailure             = internalmetrics.MetricLoginFailure
	MetricRegisterSuccess          = internalmetrics.MetricRegisterSuccess
	MetricRegisterDuplicate        = internalmetrics.MetricRegisterDuplicate
	MetricRegisterFailure          = internalmetrics.MetricRegisterFailure
	MetricPasswordChangeSuccess    = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	MetricPasswordChangeFailure    = internalmetrics.MetricPasswordChangeFailure
	MetricLogout                   = internalmetrics.MetricLogout
	MetricCheckLoginSuccess        = internalmetrics.MetricCheckLoginSuccess
	MetricCheckLoginFailure        = internalmetrics.MetricCheckLoginFailure
	// MetricSessionCleared counts sessions wiped by a failed CheckLogin.
	MetricSessionCleared       = internalmetrics.MetricSessionCleared
	MetricAutoLoginSuccess     = internalmetrics.MetricAutoLoginSuccess
	MetricAutoLoginFailure     = internalmetrics.MetricAutoLoginFailure
	MetricNavigationAllowed    = internalmetrics.MetricNavigationAllowed
	MetricNavigationRedirected = internalmetrics.MetricNavigationRedirected
	// MetricCheckLoginLatency and MetricNavigationLatency are histograms.
	MetricCheckLoginLatency = internalmetrics.MetricCheckLoginLatency
	MetricNavigationLatency = internalmetrics.MetricNavigationLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
