// Package prometheus renders console metrics in Prometheus text exposition
// format.
//
// [New] takes a [goAdmin.Engine]; [Exporter.Handler] is mounted by the
// caller, usually at /metrics. Besides the goadmin_*_total counters and the
// check-login and navigation latency histograms it reports the audit queue
// (goadmin_audit_dropped_total, goadmin_audit_pending) and whether the
// console currently holds a session (goadmin_session_active).
//
// Nothing is registered in a global Prometheus registry.
package prometheus
