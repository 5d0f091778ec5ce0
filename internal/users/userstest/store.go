// Package userstest provides an in-memory credential store for tests.
package userstest

import (
	"context"
	"sync"

	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/users"
)

// Store is a concurrency-safe users.Store kept in memory.
type Store struct {
	mu      sync.Mutex
	byID    map[string]users.User
	byEmail map[string]string

	// Err, when set, is returned by every method.
	Err error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]users.User), byEmail: make(map[string]string)}
}

// FindByEmail implements users.Store.
func (s *Store) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byEmail[users.NormalizeEmail(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

// FindByID implements users.Store.
func (s *Store) FindByID(ctx context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

// Create implements users.Store and enforces email uniqueness.
func (s *Store) Create(ctx context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return users.ErrDuplicateEmail
	}
	s.byID[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

// Delete removes a user, simulating an account that vanished under a live session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}

// All returns a snapshot of every stored user.
func (s *Store) All() []users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]users.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u)
	}
	return out
}

var _ users.Store = (*Store)(nil)
