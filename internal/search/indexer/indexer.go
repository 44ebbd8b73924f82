// Package indexer applies committed revisions to the search index and
// repairs divergence. Application is at-least-once with bounded retry;
// idempotence lives in the index itself (the revision stamp), so replays
// and races are harmless.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"quill/internal/search/feed"
	"quill/internal/search/index"
	searchmetrics "quill/internal/search/metrics"
)

const (
	applyAttempts = 3
	applyBackoff  = 50 * time.Millisecond
)

// Indexer applies commit events to the index.
type Indexer struct {
	index   index.Index
	logger  *slog.Logger
	metrics *searchmetrics.Metrics
}

func New(ix index.Index, logger *slog.Logger, metrics *searchmetrics.Metrics) *Indexer {
	return &Indexer{index: ix, logger: logger, metrics: metrics}
}

// Apply upserts one commit event, retrying transient index failures with
// exponential backoff. A final failure is counted and returned; the caller
// drops it because reconciliation rebuilds the entry from the log later.
func (ix *Indexer) Apply(ctx context.Context, event feed.CommitEvent) error {
	entry := index.Entry{
		ArticleID: event.ArticleID,
		Name:      event.Name,
		Content:   event.Content,
		Revision:  event.Revision,
		EditedAt:  event.EditedAt,
	}

	var err error
	backoff := applyBackoff
	for attempt := 1; attempt <= applyAttempts; attempt++ {
		if err = ix.index.Upsert(ctx, entry); err == nil {
			if ix.metrics != nil {
				ix.metrics.IndexUpdates.Inc()
			}
			return nil
		}
		if attempt == applyAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if ix.metrics != nil {
		ix.metrics.IndexSyncFailures.Inc()
	}
	ix.logger.ErrorContext(ctx, "index update failed after retries",
		"article_id", event.ArticleID,
		"revision", event.Revision,
		"error", err.Error(),
	)
	return err
}
