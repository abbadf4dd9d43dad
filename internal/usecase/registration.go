package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/infra/logger"
	"github.com/Lmagalhaesz/classly/internal/infra/security"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordPolicyViolation wraps the specific rule the password failed.
	ErrPasswordPolicyViolation = errors.New("password policy violation")
	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")
)

// RegistrationService creates new accounts.
type RegistrationService struct {
	users  port.CredentialStore
	logger *zap.Logger
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(users port.CredentialStore, log *zap.Logger) *RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationService{users: users, logger: log}
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// Register validates the input, hashes the password, and persists the user.
// New accounts start at token version zero.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("email is malformed")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	validator := security.DefaultPasswordValidator(email, input.Name)
	if err := validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPasswordPolicyViolation, err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         role,
		TokenVersion: 0,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("role", string(user.Role)),
	)

	sanitized := user
	sanitized.PasswordHash = ""

	return &sanitized, nil
}
