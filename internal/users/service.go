package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/passage-app/passage/internal/shared"
)

// Notifier is told about every account created through Register.
type Notifier interface {
	NotifyRegistered(ctx context.Context, name, email string) error
}

// Service handles registration rules on top of the credential store.
type Service struct {
	store      Store
	validate   *validator.Validate
	bcryptCost int
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithNotifier registers a post-registration hook. Its failures are logged only.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService builds Service instance.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		validate:   validator.New(),
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the form and returns a *ValidationError listing every
// broken rule, or nil.
func (s *Service) Validate(in RegisterInput) error {
	var problems []string
	add := func(msg string) {
		for _, p := range problems {
			if p == msg {
				return
			}
		}
		problems = append(problems, msg)
	}

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				add(MsgMissingFields)
			case "email":
				add(MsgInvalidEmail)
			}
		}
	}
	if err := s.validate.VarWithValue(in.PasswordConfirm, in.Password, "eqfield"); err != nil {
		add(MsgPasswordsMatch)
	}
	if err := s.validate.Var(in.Password, fmt.Sprintf("min=%d", MinPasswordLength)); err != nil {
		add(MsgPasswordLength)
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Register validates the form, rejects known emails, hashes the password and
// persists the new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Name = NormalizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrDuplicateEmail
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("users: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyRegistered(ctx, user.Name, user.Email); err != nil {
			s.logger.Warn("notify registered", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, nil
}
