// Package registry enforces the one-live-article-per-name invariant. It owns
// the article identity table; the unique constraint on the name column is
// what makes Reserve and Rename race-free.
package registry

import (
	"context"
	"strings"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

// Store is the name registry contract. Implementations must guarantee that
// when two callers race for the same name, exactly one wins.
type Store interface {
	// Reserve atomically maps name to the given article, creating the
	// article row. Returns models.ErrNameTaken if the name is held by a
	// different live article.
	Reserve(ctx context.Context, article models.Article) error

	// Rename atomically swaps the article's name. The old mapping is
	// released and the new one created as one unit; on models.ErrNameTaken
	// the old mapping is untouched. Returns models.ErrNotFound for an
	// unknown article.
	Rename(ctx context.Context, articleID id.ArticleID, newName string) error

	// Resolve returns the article ID currently holding the name, or
	// models.ErrNotFound.
	Resolve(ctx context.Context, name string) (id.ArticleID, error)

	// FindByName returns the article record for a name, or models.ErrNotFound.
	FindByName(ctx context.Context, name string) (*models.Article, error)

	// FindByID returns the article record for an ID, or models.ErrNotFound.
	FindByID(ctx context.Context, articleID id.ArticleID) (*models.Article, error)

	// List returns every registered article. Used by reconciliation; order
	// is unspecified.
	List(ctx context.Context) ([]models.Article, error)

	// Unreserve releases a reservation whose paired revision append failed,
	// so a half-created article never stays registered. Only the
	// compensating path in the article service calls this.
	Unreserve(ctx context.Context, articleID id.ArticleID) error
}

// Normalize is the single normalization policy for article names: leading
// and trailing whitespace is dropped and interior runs collapse to one
// space. Comparison stays case-sensitive. Creation, rename, resolve, and
// the query service's exact-match probe all go through here, never through
// a local variant.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
