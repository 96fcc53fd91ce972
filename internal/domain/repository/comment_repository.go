package repository

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
)

type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	Update(ctx context.Context, c *entity.Comment) error
	Delete(ctx context.Context, id string) error
	ListByIssue(ctx context.Context, issueID string, opts ListOptions) ([]*entity.Comment, int64, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]*entity.Comment, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Comment, error)
	CountByIssue(ctx context.Context, issueID string) (int64, error)
	// DeleteByIssue removes every comment of the issue and returns their ids.
	DeleteByIssue(ctx context.Context, issueID string) ([]string, error)
}
