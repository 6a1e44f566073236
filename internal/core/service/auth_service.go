package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
	"github.com/taskdash/task-dashboard-api/internal/core/password"
	"github.com/taskdash/task-dashboard-api/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements account registration, authentication, and bearer
// credential resolution. It is the only writer of identity rows outside the
// password migrator.
type AuthService struct {
	repo   ports.UserRepository
	hasher *password.Hasher
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, hasher *password.Hasher, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, log: log}
}

// Register creates a new identity. The username/email pre-check and the
// store's unique indexes both map to domain.ErrUserExists, so a racing
// duplicate insert still surfaces as a conflict.
func (s *AuthService) Register(ctx context.Context, username, email, plaintext string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if len(plaintext) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}

	if _, err := s.repo.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, domain.NewValidationError("password must be 72 bytes or fewer")
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Identity{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Authenticate verifies identifier (username or email) and password. Every
// failure mode returns domain.ErrInvalidCredentials so callers cannot tell an
// unknown identifier from a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, identifier, plaintext string) (*domain.Identity, error) {
	if identifier == "" || plaintext == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// ResolveCredential turns an inbound bearer credential into an identity with
// no password check. The credential is literally the username or email; see
// the AuthService port for why this contract is kept as-is.
func (s *AuthService) ResolveCredential(ctx context.Context, credential string) (*domain.Identity, error) {
	if credential == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByIdentifier(ctx, credential)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}
