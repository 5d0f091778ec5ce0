package auth

import (
	"context"

	"github.com/passage-app/passage/internal/users"
)

// Credentials are the values submitted with the login form.
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Strategy verifies submitted credentials and resolves the account they belong to.
// It returns shared.ErrInvalidCredentials for any rejection the user may learn about.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*users.User, error)
}

// Messages shown through flashes.
const (
	MsgMissingCredentials = "Please fill in all the fields."
	MsgInvalidCredentials = "Invalid email or password."
	MsgLoginRequired      = "Please log in to view this resource."
	MsgLoggedOut          = "You are logged out."
)

type userContextKey struct{}

// ContextWithUser stores the authenticated account in context.
func ContextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated account or nil.
func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(userContextKey{}).(*users.User)
	return user
}
