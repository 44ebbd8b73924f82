package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"quill/internal/search/index"
	searchmetrics "quill/internal/search/metrics"
	"quill/internal/wiki/models"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
)

// reconcileParallelism bounds concurrent log reads during a scan.
const reconcileParallelism = 8

// Reconciler rebuilds index entries that a crash between log commit and
// index update left missing or stale. The revision log is authoritative:
// for every article the latest revision is compared against the indexed
// stamp and name, and anything behind is re-upserted.
type Reconciler struct {
	registry  registry.Store
	revisions revision.Store
	index     index.Index
	logger    *slog.Logger
	metrics   *searchmetrics.Metrics
}

func NewReconciler(reg registry.Store, revs revision.Store, ix index.Index, logger *slog.Logger, metrics *searchmetrics.Metrics) *Reconciler {
	return &Reconciler{
		registry:  reg,
		revisions: revs,
		index:     ix,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run performs one full scan. It returns the number of repaired entries.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	articles, err := r.registry.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: list articles: %w", err)
	}

	repaired := make(chan struct{}, len(articles))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(reconcileParallelism)
	for _, article := range articles {
		article := article
		group.Go(func() error {
			fixed, err := r.reconcileArticle(groupCtx, article)
			if err != nil {
				return err
			}
			if fixed {
				repaired <- struct{}{}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}
	close(repaired)

	count := len(repaired)
	if r.metrics != nil {
		r.metrics.ReconcileRuns.Inc()
		r.metrics.ReconcileRepairs.Add(float64(count))
	}
	if count > 0 {
		r.logger.InfoContext(ctx, "reconciliation repaired index entries", "repaired", count)
	}
	return count, nil
}

// RunEvery reconciles once immediately and then on the given interval until
// the context is cancelled. Scan failures are logged, not fatal; the next
// tick retries.
func (r *Reconciler) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "reconciliation scan failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) reconcileArticle(ctx context.Context, article models.Article) (bool, error) {
	articleID := article.ID.String()
	latest, err := r.revisions.Latest(ctx, article.ID)
	if err != nil {
		return false, fmt.Errorf("reconcile %s: latest revision: %w", articleID, err)
	}

	meta, indexed, err := r.index.Lookup(ctx, articleID)
	if err != nil {
		return false, fmt.Errorf("reconcile %s: lookup index: %w", articleID, err)
	}
	if indexed && meta.Revision >= latest.Number && meta.Name == article.Name {
		return false, nil
	}

	err = r.index.Upsert(ctx, index.Entry{
		ArticleID: articleID,
		Name:      article.Name,
		Content:   latest.Content,
		Revision:  latest.Number,
		EditedAt:  latest.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("reconcile %s: upsert: %w", articleID, err)
	}
	return true, nil
}
