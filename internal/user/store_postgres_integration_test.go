//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"quill/internal/user"
	id "quill/pkg/domain"
	"quill/pkg/testutil/containers"
)

type UserPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestUserPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(UserPostgresSuite))
}

func (s *UserPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *UserPostgresSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "users")
	s.Require().NoError(err)
}

func (s *UserPostgresSuite) newUser(name string) user.User {
	return user.User{
		ID:           id.NewUserID(),
		Name:         name,
		PasswordHash: []byte("not-a-real-hash"),
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *UserPostgresSuite) TestCreateAndFind() {
	ctx := context.Background()
	u := s.newUser("alice")
	s.Require().NoError(s.store.Create(ctx, u))

	byName, err := s.store.FindByName(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)
	s.Equal(u.PasswordHash, byName.PasswordHash)

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Name)
}

func (s *UserPostgresSuite) TestDuplicateName() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser("bob")))

	err := s.store.Create(ctx, s.newUser("bob"))
	s.Require().ErrorIs(err, user.ErrNameTaken)
}

func (s *UserPostgresSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByName(ctx, "nobody")
	s.Require().ErrorIs(err, user.ErrNotFound)

	_, err = s.store.FindByID(ctx, id.NewUserID())
	s.Require().ErrorIs(err, user.ErrNotFound)
}
