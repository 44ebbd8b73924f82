package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed IDs keep article and user identifiers from being mixed up at call
// sites. They wrap uuid.UUID so the zero value is detectable with IsNil.

// ArticleID identifies an article. It never changes, even across renames.
type ArticleID uuid.UUID

// UserID identifies a registered user. The wiki core treats it as an opaque
// author reference; only the user service knows anything more about it.
type UserID uuid.UUID

// NewArticleID returns a fresh random article ID.
func NewArticleID() ArticleID {
	return ArticleID(uuid.New())
}

// NewUserID returns a fresh random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseArticleID parses the string form of an article ID.
func ParseArticleID(s string) (ArticleID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ArticleID{}, fmt.Errorf("parse article id: %w", err)
	}
	return ArticleID(u), nil
}

// ParseUserID parses the string form of a user ID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("parse user id: %w", err)
	}
	return UserID(u), nil
}

func (id ArticleID) String() string { return uuid.UUID(id).String() }

func (id ArticleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
