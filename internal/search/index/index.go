// Package index holds the derived search index. The index is a cache over
// the revision log, never a source of truth: every entry carries the
// revision number it was built from, upserts apply only when that stamp is
// not older than what is stored, and the whole thing can be rebuilt from
// the log at any time.
package index

import (
	"context"
	"time"
)

// Entry is the indexed state of one article: its current name and latest
// revision content. Revision is the monotonic stamp used for idempotence
// and staleness detection.
type Entry struct {
	ArticleID string
	Name      string
	Content   string
	Revision  uint64
	EditedAt  time.Time
}

// Meta is the part of an entry reconciliation compares against the log.
type Meta struct {
	Revision uint64
	Name     string
}

// Hit is one search result with its relevance score and a render-safe
// snippet. Snippets are cut on rune boundaries only.
type Hit struct {
	ArticleID string
	Name      string
	Snippet   string
	Score     float64
	EditedAt  time.Time
}

// Index is implemented by the in-memory inverted index and the Postgres
// full-text index. Both apply Upsert idempotently: replaying an event or
// applying one with a stamp older than the stored entry changes nothing.
type Index interface {
	// Upsert replaces the article's indexed content when entry.Revision is
	// at least the stored stamp, and is a no-op otherwise.
	Upsert(ctx context.Context, entry Entry) error

	// Search returns up to limit hits ranked by relevance, ties broken by
	// most recent EditedAt.
	Search(ctx context.Context, query string, limit int) ([]Hit, error)

	// Lookup returns the stamp metadata for an article, reporting false
	// when the article is not indexed.
	Lookup(ctx context.Context, articleID string) (Meta, bool, error)
}
