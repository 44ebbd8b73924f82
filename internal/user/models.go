package user

import (
	"errors"
	"time"

	id "quill/pkg/domain"
)

var (
	// ErrNotFound: no user with the given name or id.
	ErrNotFound = errors.New("user not found")
	// ErrNameTaken: the username is already registered.
	ErrNameTaken = errors.New("username already taken")
	// ErrBadCredentials: wrong username or password; callers get one
	// combined error so login probes cannot enumerate accounts.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrRegistrationClosed: the registration flag is off.
	ErrRegistrationClosed = errors.New("registration is disabled")
)

// User is an account. The wiki core only ever sees the ID, as an opaque
// author reference.
type User struct {
	ID           id.UserID
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
