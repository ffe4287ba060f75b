package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
	"github.com/NattKh/findoc_app/internal/utils"
)

// userService handles account registration and credential authentication.
type userService struct {
	userRepo    portsrepo.UserRepositoryFacade
	jwtSecret   string
	jwtExpiry   time.Duration
	tokenIssuer string
}

// NewUserService creates a new user service.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, jwtSecret string, jwtExpiry time.Duration, tokenIssuer string) portssvc.UserSvcFacade {
	return &userService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		tokenIssuer: tokenIssuer,
	}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// RegisterUser creates a user with a bcrypt-hashed password. Emails are
// stored lowercased and must be unique.
func (s *userService) RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", apperrors.ErrDuplicate)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
	user.CreatedBy = user.UserID
	user.LastUpdatedBy = user.UserID

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("User registered", slog.String("user_id", user.UserID))
	return &user, nil
}

// Authenticate verifies credentials and returns the user and a signed access
// token. Bad email and bad password produce the same error.
func (s *userService) Authenticate(ctx context.Context, req dto.LoginRequest) (*domain.User, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
		}
		return nil, "", err
	}
	if user.DeletedAt != nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
	}

	token, err := utils.GenerateJWT(user.UserID, s.jwtSecret, s.jwtExpiry, s.tokenIssuer)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Info("User authenticated", slog.String("user_id", user.UserID))
	return user, token, nil
}

// GetUserByID retrieves a user by id.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}
