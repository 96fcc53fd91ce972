package repository

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Create and Update return ErrDuplicate when the email is already taken.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Exists(ctx context.Context, id string) (bool, error)
}
