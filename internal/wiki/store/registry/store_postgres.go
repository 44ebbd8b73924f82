package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

// uniqueViolation is the Postgres error code raised when the unique
// constraint on articles.name catches a losing racer.
const uniqueViolation = "23505"

// DBTX lets the store run against either a *sql.DB or a *sql.Tx, so the
// article service can bind it into a transaction spanning the revision log.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the name registry in the articles table.
type PostgresStore struct {
	db DBTX
}

// NewPostgres constructs a registry store over a database handle.
func NewPostgres(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Reserve(ctx context.Context, article models.Article) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, name, creator_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		article.ID.String(), article.Name, article.CreatorID.String(), article.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrNameTaken
		}
		return fmt.Errorf("reserve article name: %w", err)
	}
	return nil
}

func (s *PostgresStore) Rename(ctx context.Context, articleID id.ArticleID, newName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET name = $1 WHERE id = $2`,
		newName, articleID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrNameTaken
		}
		return fmt.Errorf("rename article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename article: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Resolve(ctx context.Context, name string) (id.ArticleID, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM articles WHERE name = $1`, name,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.ArticleID{}, models.ErrNotFound
		}
		return id.ArticleID{}, fmt.Errorf("resolve article name: %w", err)
	}
	articleID, err := id.ParseArticleID(raw)
	if err != nil {
		return id.ArticleID{}, fmt.Errorf("resolve article name: %w", err)
	}
	return articleID, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, creator_id, created_at
		FROM articles WHERE name = $1`, name)
	return scanArticle(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, articleID id.ArticleID) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, creator_id, created_at
		FROM articles WHERE id = $1`, articleID.String())
	return scanArticle(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, creator_id, created_at FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var (
			article          models.Article
			rawID, rawAuthor string
		)
		if err := rows.Scan(&rawID, &article.Name, &rawAuthor, &article.CreatedAt); err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		if article.ID, err = id.ParseArticleID(rawID); err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		if article.CreatorID, err = id.ParseUserID(rawAuthor); err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) Unreserve(ctx context.Context, articleID id.ArticleID) error {
	// Safe only because the caller holds the article that was never visible
	// outside the failed create.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE id = $1`, articleID.String())
	if err != nil {
		return fmt.Errorf("unreserve article: %w", err)
	}
	return nil
}

func scanArticle(row *sql.Row) (*models.Article, error) {
	var (
		article          models.Article
		rawID, rawAuthor string
	)
	err := row.Scan(&rawID, &article.Name, &rawAuthor, &article.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	if article.ID, err = id.ParseArticleID(rawID); err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	if article.CreatorID, err = id.ParseUserID(rawAuthor); err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return &article, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
