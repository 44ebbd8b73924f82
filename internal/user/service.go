package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	flagstore "quill/internal/flag"
	id "quill/pkg/domain"
	dErrors "quill/pkg/domainerrors"
	"quill/pkg/requestcontext"
)

// tokenTTL is how long a session token stays valid.
const tokenTTL = 24 * time.Hour

// Flags is the slice of the flag service the user service needs.
type Flags interface {
	Enabled(ctx context.Context, name string) bool
}

// Service handles registration and login. Everything downstream of login
// works with the opaque user ID carried in the JWT subject claim.
type Service struct {
	store      Store
	flags      Flags
	signingKey []byte
}

func NewService(store Store, flags Flags, signingKey []byte) *Service {
	return &Service{store: store, flags: flags, signingKey: signingKey}
}

// Register creates a new account, refused outright while the registration
// flag is off.
func (s *Service) Register(ctx context.Context, name, password string) (*User, error) {
	if !s.flags.Enabled(ctx, flagstore.RegistrationEnabled) {
		return nil, dErrors.Wrap(ErrRegistrationClosed, dErrors.CodeConflict, "registration is disabled")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u := User{
		ID:           id.NewUserID(),
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return &u, nil
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	u, err := s.store.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", dErrors.Wrap(ErrBadCredentials, dErrors.CodeBadRequest, "invalid username or password")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", dErrors.Wrap(ErrBadCredentials, dErrors.CodeBadRequest, "invalid username or password")
	}

	now := requestcontext.Now(ctx)
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return token, nil
}

// Authenticate validates a session token and returns the user ID it carries.
func (s *Service) Authenticate(_ context.Context, token string) (id.UserID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return id.UserID{}, dErrors.New(dErrors.CodeBadRequest, "invalid session token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return id.UserID{}, dErrors.New(dErrors.CodeBadRequest, "invalid session token")
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeBadRequest, "invalid session token")
	}
	return userID, nil
}

// NameOf resolves a user ID to its display name, for revision listings.
func (s *Service) NameOf(ctx context.Context, userID id.UserID) (string, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u.Name, nil
}
