package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/users"
)

// LocalStrategy authenticates email/password pairs against the credential store.
type LocalStrategy struct {
	store users.Store
}

// NewLocalStrategy constructs a LocalStrategy.
func NewLocalStrategy(store users.Store) *LocalStrategy {
	return &LocalStrategy{store: store}
}

// Name identifies the strategy in logs and metrics.
func (s *LocalStrategy) Name() string {
	return "local"
}

// Authenticate validates email/password credentials.
func (s *LocalStrategy) Authenticate(ctx context.Context, creds Credentials) (*users.User, error) {
	user, err := s.store.FindByEmail(ctx, users.NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

var _ Strategy = (*LocalStrategy)(nil)
