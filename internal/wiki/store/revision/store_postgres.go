package revision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

const uniqueViolation = "23505"

// DBTX lets the store run against either a *sql.DB or a *sql.Tx so create
// can commit the name reservation and revision 0 as one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the revision log. The primary key on
// (article_id, number) makes concurrent appends of the same number fail for
// all but one writer.
type PostgresStore struct {
	db DBTX
}

// NewPostgres constructs a revision log over a database handle.
func NewPostgres(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rev models.Revision) (*models.Revision, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO revisions (article_id, number, content, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		rev.ArticleID.String(), rev.Number, rev.Content, rev.AuthorID.String(),
	).Scan(&rev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, models.ErrConcurrentAppend
		}
		return nil, fmt.Errorf("append revision: %w", err)
	}
	return &rev, nil
}

func (s *PostgresStore) Latest(ctx context.Context, articleID id.ArticleID) (*models.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT article_id, number, content, author_id, created_at
		FROM revisions
		WHERE article_id = $1
		ORDER BY number DESC
		LIMIT 1`, articleID.String())
	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (s *PostgresStore) Get(ctx context.Context, articleID id.ArticleID, number uint64) (*models.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT article_id, number, content, author_id, created_at
		FROM revisions
		WHERE article_id = $1 AND number = $2`,
		articleID.String(), number)
	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing revision from a missing article so the
			// caller can message each case differently.
			if _, latestErr := s.Latest(ctx, articleID); errors.Is(latestErr, models.ErrNotFound) {
				return nil, models.ErrNotFound
			}
			return nil, models.ErrRevisionNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (s *PostgresStore) List(ctx context.Context, articleID id.ArticleID) ([]models.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT article_id, number, content, author_id, created_at
		FROM revisions
		WHERE article_id = $1
		ORDER BY number ASC`, articleID.String())
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []models.Revision
	for rows.Next() {
		var (
			rev              models.Revision
			rawID, rawAuthor string
		)
		if err := rows.Scan(&rawID, &rev.Number, &rev.Content, &rawAuthor, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("list revisions: %w", err)
		}
		if rev.ArticleID, err = id.ParseArticleID(rawID); err != nil {
			return nil, fmt.Errorf("list revisions: %w", err)
		}
		if rev.AuthorID, err = id.ParseUserID(rawAuthor); err != nil {
			return nil, fmt.Errorf("list revisions: %w", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return revs, nil
}

func scanRevision(row *sql.Row) (*models.Revision, error) {
	var (
		rev              models.Revision
		rawID, rawAuthor string
	)
	err := row.Scan(&rawID, &rev.Number, &rev.Content, &rawAuthor, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	if rev.ArticleID, err = id.ParseArticleID(rawID); err != nil {
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	if rev.AuthorID, err = id.ParseUserID(rawAuthor); err != nil {
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	return &rev, nil
}
