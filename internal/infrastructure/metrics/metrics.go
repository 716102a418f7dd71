// Package metrics defines and registers all custom Prometheus metrics for the
// user service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users"

// ── Upsert metrics ────────────────────────────────────────────────────────────

// UpsertsTotal counts create/update calls by outcome.
// Labels:
//   - role: "customer", "translator", "admin" or "other"
//   - op: "create" or "update"
//   - outcome: "ok", "not_found" or "error"
var UpsertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upserts_total",
		Help:      "Total number of user create/update calls, by role, operation and outcome.",
	},
	[]string{"role", "op", "outcome"},
)

// UpsertDuration measures a full upsert transaction, lock wait included.
// Label:
//   - outcome: "ok" or "error"
var UpsertDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upsert_duration_seconds",
		Help:      "Duration of a user upsert from lock acquisition to commit.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Association metrics ───────────────────────────────────────────────────────

// EdgeWritesTotal counts association rows written during reconciliation.
// Labels:
//   - kind: "blacklist", "language" or "town"
//   - op: "created" or "deleted"
var EdgeWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edge_writes_total",
		Help:      "Total number of association edges created or deleted by reconciliation.",
	},
	[]string{"kind", "op"},
)

// ── Status metrics ────────────────────────────────────────────────────────────

// StatusChangesTotal counts enable/disable operations.
// Label:
//   - status: "enabled" or "disabled"
var StatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_changes_total",
		Help:      "Total number of user status writes, by resulting status.",
	},
	[]string{"status"},
)

// ── Batch queue metrics ───────────────────────────────────────────────────────

// BatchQueueDepth tracks the number of upsert jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var BatchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "batch_queue_depth",
		Help:      "Current number of upsert jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// BatchJobsFailedTotal counts queued upsert jobs that returned an error.
var BatchJobsFailedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_jobs_failed_total",
		Help:      "Total number of queued upsert jobs that failed.",
	},
)
