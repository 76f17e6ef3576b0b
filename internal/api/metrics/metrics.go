// Package metrics defines and registers the custom Prometheus metrics of the
// explorer API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the /metrics endpoint exposes them next to echo's HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "explorer"

// ── Access metrics ────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the authentication gate.
// Label:
//   - reason: "missing_token", "invalid_token" or "unknown_principal"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by the authentication gate.",
	},
	[]string{"reason"},
)

// AccessDeniedTotal counts requests rejected by an authorization gate.
// Label:
//   - gate: "role" or "ownership"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected by an authorization gate.",
	},
	[]string{"gate"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Resource metrics ──────────────────────────────────────────────────────────

// LocationMutationsTotal counts successful location writes.
// Label:
//   - operation: "create", "update", "delete", "gallery_add", "gallery_remove"
var LocationMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_mutations_total",
		Help:      "Total number of successful location mutations, by operation.",
	},
	[]string{"operation"},
)

// UserMutationsTotal counts successful admin account writes.
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of successful user account mutations, by operation.",
	},
	[]string{"operation"},
)

// IdempotentReplaysTotal counts location creations answered from a stored
// idempotency key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of location creations replayed from an idempotency key.",
	},
)

// ── Media cleanup metrics ─────────────────────────────────────────────────────

// MediaCleanupTotal counts media objects processed by the cleanup workers.
// Label:
//   - result: "deleted" or "error"
var MediaCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_cleanup_total",
		Help:      "Total number of media objects processed by the cleanup workers.",
	},
	[]string{"result"},
)

// MediaCleanupQueueDepth tracks pending cleanup jobs in each worker channel.
var MediaCleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "media_cleanup_queue_depth",
		Help:      "Current number of cleanup jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// MediaCleanupDuration measures how long one cleanup job takes.
var MediaCleanupDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_cleanup_duration_seconds",
		Help:      "Duration of a media cleanup job from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
)
