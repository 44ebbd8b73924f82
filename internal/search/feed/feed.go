// Package feed carries committed revisions from the article store to the
// search indexer. Delivery is at-least-once and the indexer applies events
// idempotently, so the feed never needs to participate in the article
// store's transaction. In-process deployments use the channel feed; multi
// process ones use the Kafka feed.
package feed

import (
	"context"
	"log/slog"
	"time"
)

// CommitEvent describes one durably committed state of an article: its name
// and the content of its latest revision. Revision is the monotonic stamp
// the index compares to detect stale or replayed events.
type CommitEvent struct {
	ArticleID string    `json:"article_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Revision  uint64    `json:"revision"`
	EditedAt  time.Time `json:"edited_at"`
}

// Publisher is the write side of the feed. The article store publishes
// after commit; a publish failure is logged and metered, never surfaced to
// the editing user, because reconciliation repairs the index from the log.
type Publisher interface {
	Publish(ctx context.Context, event CommitEvent) error
}

// Applier is the read side; the indexer implements it.
type Applier interface {
	Apply(ctx context.Context, event CommitEvent) error
}

// ChannelFeed is the in-process feed: a buffered channel between the write
// path and the indexer worker.
type ChannelFeed struct {
	events chan CommitEvent
	logger *slog.Logger
}

func NewChannel(buffer int, logger *slog.Logger) *ChannelFeed {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelFeed{
		events: make(chan CommitEvent, buffer),
		logger: logger,
	}
}

// Publish enqueues the event. It blocks only while the buffer is full, and
// gives up when the caller's context expires so the write path never hangs
// on a slow indexer longer than the request allows.
func (f *ChannelFeed) Publish(ctx context.Context, event CommitEvent) error {
	select {
	case f.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the feed into the applier until the context is cancelled.
// Apply errors are logged and dropped here; the applier already retried,
// and reconciliation is the backstop for anything it could not index.
func (f *ChannelFeed) Run(ctx context.Context, applier Applier) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-f.events:
			if err := applier.Apply(ctx, event); err != nil {
				f.logger.ErrorContext(ctx, "commit feed apply failed",
					"article_id", event.ArticleID,
					"revision", event.Revision,
					"error", err.Error(),
				)
			}
		}
	}
}
