package users

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// User is a registered account as held by the credential store.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterInput carries the submitted registration form.
type RegisterInput struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	PasswordConfirm string `validate:"required"`
}

// MinPasswordLength is the shortest accepted password, counted in characters.
const MinPasswordLength = 8

// Messages shown next to the registration form.
const (
	MsgMissingFields  = "Please fill in all the fields."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgPasswordsMatch = "Passwords do not match."
	MsgPasswordLength = "Password should be at least 8 characters long."
	MsgDuplicateEmail = "Email already exists. Please log in."
	MsgRegistered     = "You are now registered. You can now log in."
)

// ErrDuplicateEmail indicates the email is already bound to an account.
var ErrDuplicateEmail = errors.New("email already registered")

// ValidationError lists every rule the submitted form broke, in display order.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "users: invalid registration: " + strings.Join(e.Problems, "; ")
}

// NormalizeEmail folds an address to the form it is stored and looked up by.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}

// NormalizeName trims and composes a display name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
