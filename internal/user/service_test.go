package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "quill/pkg/domainerrors"
)

// stubFlags answers the registration gate with a fixed value.
type stubFlags struct {
	open bool
}

func (f stubFlags) Enabled(context.Context, string) bool { return f.open }

type UserServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *UserServiceSuite) SetupTest() {
	s.svc = NewService(NewMemory(), stubFlags{open: true}, []byte("test-signing-key"))
	s.ctx = context.Background()
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) TestRegister() {
	s.Run("creates an account", func() {
		u, err := s.svc.Register(s.ctx, "alice", "correct horse battery")
		s.Require().NoError(err)
		s.Equal("alice", u.Name)
		s.False(u.ID.IsNil())
		s.NotEmpty(u.PasswordHash)
	})

	s.Run("rejects duplicate names", func() {
		_, err := s.svc.Register(s.ctx, "alice", "another password")
		s.Require().ErrorIs(err, ErrNameTaken)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects short passwords", func() {
		_, err := s.svc.Register(s.ctx, "bob", "short")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects blank names", func() {
		_, err := s.svc.Register(s.ctx, "   ", "long enough password")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *UserServiceSuite) TestRegistrationGate() {
	closed := NewService(NewMemory(), stubFlags{open: false}, []byte("test-signing-key"))

	_, err := closed.Register(s.ctx, "carol", "long enough password")
	s.Require().ErrorIs(err, ErrRegistrationClosed)
}

func (s *UserServiceSuite) TestLoginAndAuthenticate() {
	u, err := s.svc.Register(s.ctx, "dave", "a decent password")
	s.Require().NoError(err)

	s.Run("valid credentials yield a token that authenticates", func() {
		token, err := s.svc.Login(s.ctx, "dave", "a decent password")
		s.Require().NoError(err)
		s.NotEmpty(token)

		userID, err := s.svc.Authenticate(s.ctx, token)
		s.Require().NoError(err)
		s.Equal(u.ID, userID)
	})

	s.Run("wrong password is rejected without leaking which part failed", func() {
		_, err := s.svc.Login(s.ctx, "dave", "not the password")
		s.Require().ErrorIs(err, ErrBadCredentials)
	})

	s.Run("unknown user gets the same error", func() {
		_, err := s.svc.Login(s.ctx, "nobody", "a decent password")
		s.Require().ErrorIs(err, ErrBadCredentials)
	})

	s.Run("garbage tokens are rejected", func() {
		_, err := s.svc.Authenticate(s.ctx, "not.a.token")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("tokens signed with a different key are rejected", func() {
		other := NewService(NewMemory(), stubFlags{open: true}, []byte("other-key"))
		token, err := s.svc.Login(s.ctx, "dave", "a decent password")
		s.Require().NoError(err)

		_, err = other.Authenticate(s.ctx, token)
		s.Require().Error(err)
	})
}

func (s *UserServiceSuite) TestNameOf() {
	u, err := s.svc.Register(s.ctx, "erin", "a decent password")
	s.Require().NoError(err)

	name, err := s.svc.NameOf(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("erin", name)
}
