package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresIndex keeps the search index in Postgres full-text search, on its
// own pgx pool so the index can fail independently of the authoritative
// stores without taking the write path down with it. Name tokens carry
// weight A, content weight B, so ts_rank favors title matches.
type PostgresIndex struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs the index over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

// Schema is the DDL for the index table. The index owns its table; nothing
// else reads or writes it.
const Schema = `
CREATE TABLE IF NOT EXISTS search_index (
	article_id TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	content    TEXT NOT NULL,
	revision   BIGINT NOT NULL,
	edited_at  TIMESTAMPTZ NOT NULL,
	tsv        TSVECTOR NOT NULL
);
CREATE INDEX IF NOT EXISTS search_index_tsv_idx ON search_index USING GIN (tsv);
`

// EnsureSchema creates the index table if needed.
func (ix *PostgresIndex) EnsureSchema(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure search index schema: %w", err)
	}
	return nil
}

func (ix *PostgresIndex) Upsert(ctx context.Context, entry Entry) error {
	// The WHERE clause on the conflict arm is the idempotence guard: a
	// stale stamp updates nothing.
	_, err := ix.pool.Exec(ctx, `
		INSERT INTO search_index (article_id, name, content, revision, edited_at, tsv)
		VALUES ($1, $2, $3, $4, $5,
			setweight(to_tsvector('english', $2), 'A') ||
			setweight(to_tsvector('english', $3), 'B'))
		ON CONFLICT (article_id) DO UPDATE SET
			name = EXCLUDED.name,
			content = EXCLUDED.content,
			revision = EXCLUDED.revision,
			edited_at = EXCLUDED.edited_at,
			tsv = EXCLUDED.tsv
		WHERE search_index.revision <= EXCLUDED.revision`,
		entry.ArticleID, entry.Name, entry.Content, int64(entry.Revision), entry.EditedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert search entry: %w", err)
	}
	return nil
}

func (ix *PostgresIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := ix.pool.Query(ctx, `
		SELECT article_id, name, edited_at,
			ts_rank(tsv, q) AS rank,
			ts_headline('english', content, q,
				'MaxWords=30, MinWords=10, MaxFragments=1, StartSel=, StopSel=') AS snippet
		FROM search_index, plainto_tsquery('english', $1) AS q
		WHERE tsv @@ q
		ORDER BY rank DESC, edited_at DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		var rank float32
		if err := rows.Scan(&hit.ArticleID, &hit.Name, &hit.EditedAt, &rank, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hit.Score = float64(rank)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}

func (ix *PostgresIndex) Lookup(ctx context.Context, articleID string) (Meta, bool, error) {
	var meta Meta
	var revision int64
	err := ix.pool.QueryRow(ctx,
		`SELECT revision, name FROM search_index WHERE article_id = $1`,
		articleID,
	).Scan(&revision, &meta.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Meta{}, false, nil
		}
		return Meta{}, false, fmt.Errorf("lookup search entry: %w", err)
	}
	meta.Revision = uint64(revision)
	return meta, true, nil
}
