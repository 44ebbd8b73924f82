package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the article write path.
type Metrics struct {
	ArticlesCreated  prometheus.Counter
	RevisionsCreated prometheus.Counter
	NoOpEdits        prometheus.Counter
	StaleEdits       prometheus.Counter
	NameConflicts    prometheus.Counter
	Renames          prometheus.Counter
}

// New creates and registers the wiki metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against a caller-supplied registry; tests pass a fresh
// one to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ArticlesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_articles_created_total",
			Help: "Total number of articles created.",
		}),
		RevisionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_revisions_created_total",
			Help: "Total number of revisions appended across all articles.",
		}),
		NoOpEdits: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_noop_edits_total",
			Help: "Edits whose content matched the current revision, creating nothing.",
		}),
		StaleEdits: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_stale_edits_total",
			Help: "Edits rejected because the expected revision was no longer latest.",
		}),
		NameConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_name_conflicts_total",
			Help: "Creates or renames rejected because the name was already taken.",
		}),
		Renames: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_renames_total",
			Help: "Successful article renames.",
		}),
	}
}
