// Package metrics defines and registers all custom Prometheus metrics for the
// portal. It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry at import time; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts sign-in attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "role_not_permitted",
//     "backend_unavailable", "throttled", or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of portal sign-in attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionRefreshTotal counts per-request session re-hydrations.
// Label:
//   - result: "fresh" (backend confirmed), "stale" (backend unreachable, kept
//     previous identity), "forced_logout" (token rejected), "logged_out"
//     (no token stored)
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Total number of session re-hydrations, by result.",
	},
	[]string{"result"},
)

// ── Availability metrics ──────────────────────────────────────────────────────

// DegradedRequestsTotal counts requests served while the backend was marked
// degraded by the availability monitor.
var DegradedRequestsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degraded_requests_total",
		Help:      "Total number of requests handled while the backend was degraded.",
	},
)
