package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
)

// TokenService signs and verifies the access/refresh token pair. The two
// token kinds use independent secrets and lifetimes.
type TokenService interface {
	Issue(userID uuid.UUID) (accessToken, refreshToken string, err error)
	VerifyAccess(token string) (uuid.UUID, error)
	VerifyRefresh(token string) (uuid.UUID, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Refresh rotates both tokens for an already-resolved user and persists
	// the new refresh token, superseding the one just presented.
	Refresh(ctx context.Context, user *domain.User) (*AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}
