package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "quill/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		u.ID.String(), u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, created_at
		FROM users WHERE name = $1`, name)
	return scanUser(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, created_at
		FROM users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u     User
		rawID string
	)
	err := row.Scan(&rawID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if u.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
