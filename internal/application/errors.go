package application

import (
	"errors"

	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgIssueNotFound      = "Issue not found"
	msgCommentNotFound    = "Comment not found"
	msgFileNotFound       = "File not found"
	msgUserNotFound       = "User not found"
	msgAssigneeNotFound   = "Assigned user not found"
)

// storeErr classifies a repository error. notFound is the caller-facing
// message used when the record is missing. Already classified errors pass
// through unchanged.
func storeErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperror.NotFound(notFound)
	case errors.Is(err, repo.ErrDuplicate):
		return apperror.Wrap(apperror.KindConflict, "Resource already exists", err)
	default:
		return apperror.Database(err)
	}
}
