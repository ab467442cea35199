package internaldefs

import (
	goAdmin "github.com/MrEthical07/goAdmin"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// HistogramDef names one exported latency histogram.
type HistogramDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// Series that are not backed by a MetricID.
const (
	AuditDroppedName  = "goadmin_audit_dropped_total"
	AuditDroppedHelp  = "Audit events that never reached the sink."
	AuditPendingName  = "goadmin_audit_pending"
	AuditPendingHelp  = "Audit events queued for the sink."
	SessionActiveName = "goadmin_session_active"
	SessionActiveHelp = "1 while the console holds an authenticated session."
)

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goAdmin.MetricLoginSuccess, Name: "goadmin_login_success_total", Help: "Successful logins."},
	{ID: goAdmin.MetricLoginFailure, Name: "goadmin_login_failure_total", Help: "Failed logins."},
	{ID: goAdmin.MetricRegisterSuccess, Name: "goadmin_register_success_total", Help: "Successful registrations."},
	{ID: goAdmin.MetricRegisterDuplicate, Name: "goadmin_register_duplicate_total", Help: "Registrations rejected because the username exists."},
	{ID: goAdmin.MetricRegisterFailure, Name: "goadmin_register_failure_total", Help: "Registrations failed for other reasons."},
	{ID: goAdmin.MetricPasswordChangeSuccess, Name: "goadmin_password_change_success_total", Help: "Successful password changes."},
	{ID: goAdmin.MetricPasswordChangeInvalidOld, Name: "goadmin_password_change_invalid_old_total", Help: "Password changes with an incorrect old password."},
	{ID: goAdmin.MetricPasswordChangeFailure, Name: "goadmin_password_change_failure_total", Help: "Password changes failed for other reasons."},
	{ID: goAdmin.MetricLogout, Name: "goadmin_logout_total", Help: "Logout operations."},
	{ID: goAdmin.MetricCheckLoginSuccess, Name: "goadmin_check_login_success_total", Help: "Login checks that found a usable session."},
	{ID: goAdmin.MetricCheckLoginFailure, Name: "goadmin_check_login_failure_total", Help: "Login checks that found no usable session."},
	{ID: goAdmin.MetricSessionCleared, Name: "goadmin_session_cleared_total", Help: "Sessions cleared by a failed login check."},
	{ID: goAdmin.MetricAutoLoginSuccess, Name: "goadmin_auto_login_success_total", Help: "Successful auto-logins."},
	{ID: goAdmin.MetricAutoLoginFailure, Name: "goadmin_auto_login_failure_total", Help: "Failed auto-logins."},
	{ID: goAdmin.MetricNavigationAllowed, Name: "goadmin_navigation_allowed_total", Help: "Navigations allowed by the guard."},
	{ID: goAdmin.MetricNavigationRedirected, Name: "goadmin_navigation_redirected_total", Help: "Navigations redirected by the guard."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAdmin.MetricCheckLoginLatency, Name: "goadmin_check_login_latency_seconds", Help: "Login check latency histogram."},
	{ID: goAdmin.MetricNavigationLatency, Name: "goadmin_navigation_latency_seconds", Help: "Guard navigation latency histogram."},
}

// HistogramBounds are the Prometheus le labels of the 8 buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bucket bounds in OTel instrument-name form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
