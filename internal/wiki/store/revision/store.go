// Package revision is the append-only revision log. Revisions are immutable
// full-content snapshots numbered per article from 0 with no gaps; the
// composite uniqueness of (article_id, number) is what serializes concurrent
// appends.
package revision

import (
	"context"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

// Store is the revision log contract.
type Store interface {
	// Append durably persists rev, claiming rev.Number for its article.
	// The caller derives the number from the latest revision it observed
	// (or 0 for a brand-new article); if a concurrent append claimed the
	// same number first, Append returns models.ErrConcurrentAppend and the
	// caller must re-read the latest number before retrying. The returned
	// revision carries the store-assigned timestamp.
	Append(ctx context.Context, rev models.Revision) (*models.Revision, error)

	// Latest returns the highest-numbered revision for the article, or
	// models.ErrNotFound if the article has no revisions.
	Latest(ctx context.Context, articleID id.ArticleID) (*models.Revision, error)

	// Get returns one revision, models.ErrRevisionNotFound if the number
	// does not exist for that article.
	Get(ctx context.Context, articleID id.ArticleID, number uint64) (*models.Revision, error)

	// List returns all revisions for the article ordered by ascending
	// number. Re-querying yields identical results for committed data.
	List(ctx context.Context, articleID id.ArticleID) ([]models.Revision, error)
}
