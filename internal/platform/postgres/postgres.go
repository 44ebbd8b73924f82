// Package postgres opens the authoritative database and owns its schema:
// articles (with the unique name constraint behind the registry), the
// revision log keyed by (article_id, number), and users. The search index
// table lives with the index package, on its own connection.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the pq driver used for the authoritative store.
	_ "github.com/lib/pq"
)

// Schema is idempotent DDL for the authoritative tables. The unique
// constraint on articles.name and the primary key on
// revisions(article_id, number) are load-bearing: they are what serialize
// concurrent creates, renames, and appends.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS articles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	creator_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS revisions (
	article_id TEXT NOT NULL REFERENCES articles (id),
	number     BIGINT NOT NULL,
	content    TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (article_id, number)
);
`

// Open connects, verifies the connection, and applies the schema.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
