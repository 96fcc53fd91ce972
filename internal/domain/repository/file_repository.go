package repository

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
)

type FileRepository interface {
	Create(ctx context.Context, f *entity.File) error
	GetByID(ctx context.Context, id string) (*entity.File, error)
	Delete(ctx context.Context, id string) error
	ListByIssue(ctx context.Context, issueID string) ([]*entity.File, error)
	ListByUploader(ctx context.Context, userID string, opts ListOptions) ([]*entity.File, int64, error)
	CountByIssue(ctx context.Context, issueID string) (int64, error)
	// DeleteByIssue removes every file record of the issue and returns them
	// so the caller can remove the blobs.
	DeleteByIssue(ctx context.Context, issueID string) ([]*entity.File, error)
	Stats(ctx context.Context) (*entity.FileStats, error)
}
