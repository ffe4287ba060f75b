package services

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/dto"
)

// UserSvcFacade defines user management and authentication operations.
type UserSvcFacade interface {
	// RegisterUser creates a user with a bcrypt-hashed password.
	RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)

	// Authenticate verifies credentials and returns the user and a signed
	// access token.
	Authenticate(ctx context.Context, req dto.LoginRequest) (*domain.User, string, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
