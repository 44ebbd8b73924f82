package main

import (
	"context"
	"database/sql"
	"time"

	"quill/internal/wiki/service"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
	dErrors "quill/pkg/domainerrors"
)

const defaultWikiTxTimeout = 5 * time.Second

// wikiPostgresTx runs the registry and revision stores inside a single
// database transaction so a create either reserves the name and appends
// revision zero, or does neither.
type wikiPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newWikiPostgresTx(db *sql.DB) *wikiPostgresTx {
	return &wikiPostgresTx{db: db}
}

func (t *wikiPostgresTx) RunInTx(ctx context.Context, fn func(stores service.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultWikiTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(service.Stores{
		Registry:  registry.NewPostgres(tx),
		Revisions: revision.NewPostgres(tx),
	}); err != nil {
		return err
	}

	return tx.Commit()
}
