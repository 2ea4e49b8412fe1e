// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace auth API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init via promauto; the /metrics route exposes that registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "disabled", "invalid_input", "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - outcome: "success", "conflict", "invalid_input", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LogoutSessionsRemovedTotal counts session records dropped by logout.
var LogoutSessionsRemovedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logout_sessions_removed_total",
		Help:      "Total number of session records removed by logout.",
	},
)

// LoginRateLimitedTotal counts login requests rejected by the per-IP window.
var LoginRateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_rate_limited_total",
		Help:      "Total number of login requests rejected by the rate limiter.",
	},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreOperationDuration measures document store operations.
// Labels:
//   - driver: "file" or "mongo"
//   - op: "read", "write", or "update"
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of document store operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"driver", "op"},
)

// StoreErrorsTotal counts failed store operations.
// Labels:
//   - driver: "file" or "mongo"
//   - op: "read", "write", or "update"
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Total number of failed document store operations.",
	},
	[]string{"driver", "op"},
)
