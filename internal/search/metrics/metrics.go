package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the index sync and query
// paths. IndexSyncFailures is the observable trail of divergence that end
// users never see: a climbing counter here means the reconciler is papering
// over a real storage fault.
type Metrics struct {
	IndexUpdates      prometheus.Counter
	IndexSyncFailures prometheus.Counter
	ReconcileRuns     prometheus.Counter
	ReconcileRepairs  prometheus.Counter
	QueryDuration     prometheus.Histogram
}

// New creates and registers the search metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against a caller-supplied registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IndexUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_index_updates_total",
			Help: "Commit events successfully applied to the search index.",
		}),
		IndexSyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_index_sync_failures_total",
			Help: "Commit events the indexer gave up on after bounded retries.",
		}),
		ReconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_reconcile_runs_total",
			Help: "Completed reconciliation scans of the revision log.",
		}),
		ReconcileRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_reconcile_repairs_total",
			Help: "Index entries rebuilt because they were missing or stale.",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quill_search_query_duration_seconds",
			Help:    "Latency of search queries.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
