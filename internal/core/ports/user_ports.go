package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByIDAndRefreshToken resolves a user only when the given token is the
	// currently stored one. A superseded token never matches.
	GetByIDAndRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error
}
