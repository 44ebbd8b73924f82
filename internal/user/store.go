package user

import (
	"context"

	id "quill/pkg/domain"
)

// Store persists user accounts. Username uniqueness is enforced the same
// way article names are: a unique constraint, with exactly one winner under
// concurrency.
type Store interface {
	// Create persists a new user, returning ErrNameTaken if the username
	// is already registered.
	Create(ctx context.Context, u User) error
	// FindByName returns the user with the given name, or ErrNotFound.
	FindByName(ctx context.Context, name string) (*User, error)
	// FindByID returns the user with the given ID, or ErrNotFound.
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
}
