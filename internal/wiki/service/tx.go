package service

import (
	"context"
	"sync"
	"time"

	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
	dErrors "quill/pkg/domainerrors"
)

// Stores bundles the two authoritative stores a transaction spans. Create
// needs the name reservation and revision 0 to commit together or not at
// all; everything else uses single-store atomicity.
type Stores struct {
	Registry  registry.Store
	Revisions revision.Store
}

// StoreTx provides the transactional boundary for multi-store mutations.
// The Postgres implementation wraps a database transaction; the in-memory
// one serializes behind a coarse lock and relies on compensation.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(stores Stores) error) error
}

// defaultTxTimeout bounds how long a create may hold the boundary.
const defaultTxTimeout = 5 * time.Second

type memoryTx struct {
	mu      sync.Mutex
	stores  Stores
	timeout time.Duration
}

// NewMemoryTx builds a StoreTx over in-memory stores. It cannot roll back,
// so callers compensate explicitly (Unreserve) when a later step fails.
func NewMemoryTx(stores Stores) StoreTx {
	return &memoryTx{stores: stores, timeout: defaultTxTimeout}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.stores)
}
