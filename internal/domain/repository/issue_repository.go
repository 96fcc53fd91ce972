package repository

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
)

// IssueFilter narrows List results. Zero values mean "any".
// Search is a case-insensitive substring match on title or description.
type IssueFilter struct {
	Status     entity.IssueStatus
	Priority   entity.IssuePriority
	AssignedTo string
	CreatedBy  string
	Search     string
}

// ListOptions is offset pagination; results are ordered newest-first.
type ListOptions struct {
	Offset int
	Limit  int
}

type IssueRepository interface {
	Create(ctx context.Context, i *entity.Issue) error
	GetByID(ctx context.Context, id string) (*entity.Issue, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Issue, error)
	List(ctx context.Context, f IssueFilter, opts ListOptions) ([]*entity.Issue, int64, error)
	// Update persists title, description, status, priority and assignee.
	Update(ctx context.Context, i *entity.Issue) error
	Delete(ctx context.Context, id string) error

	// Reference-set maintenance. Add is idempotent (exactly-once membership),
	// Remove of an absent id is a no-op. Both return ErrNotFound for a
	// missing issue.
	AddComment(ctx context.Context, issueID, commentID string) error
	RemoveComment(ctx context.Context, issueID, commentID string) error
	ClearComments(ctx context.Context, issueID string) error
	AddFile(ctx context.Context, issueID, fileID string) error
	RemoveFile(ctx context.Context, issueID, fileID string) error
	ClearFiles(ctx context.Context, issueID string) error
}
