// Package flag is a small named-boolean store. The wiki uses it for the
// registration toggle, but nothing in here knows about registration; it is
// a generalized flag store with pluggable backends.
package flag

import (
	"context"
	"errors"
)

// RegistrationEnabled gates whether new users may register.
const RegistrationEnabled = "registration_enabled"

// ErrNotFound reports a flag that was never set.
var ErrNotFound = errors.New("flag not set")

// Store persists named boolean flags.
type Store interface {
	// Get returns the flag value, or ErrNotFound if it was never set.
	Get(ctx context.Context, name string) (bool, error)
	// Set writes the flag value unconditionally.
	Set(ctx context.Context, name string, value bool) error
}
