package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

// Coordinator keeps an issue's comment and file reference sets in step with
// the child records, and runs the issue cascade.
//
// Each method is a short sequence of store calls, not a transaction. On a
// failed step it compensates so the issue never references a record that
// is gone; a crash between steps can still leave an orphaned child row.
type Coordinator struct {
	Issues   repo.IssueRepository
	Comments repo.CommentRepository
	Files    repo.FileRepository
	Blobs    storage.BlobStore
	Logger   logrus.FieldLogger
}

func NewCoordinator(issues repo.IssueRepository, comments repo.CommentRepository, files repo.FileRepository, blobs storage.BlobStore, logger logrus.FieldLogger) *Coordinator {
	return &Coordinator{Issues: issues, Comments: comments, Files: files, Blobs: blobs, Logger: logger}
}

// CascadeReport summarises an issue deletion.
type CascadeReport struct {
	IssueID         string   `json:"issueId"`
	CommentsDeleted int      `json:"commentsDeleted"`
	FilesDeleted    int      `json:"filesDeleted"`
	BlobsDeleted    int      `json:"blobsDeleted"`
	BlobFailures    []string `json:"blobFailures,omitempty"`
}

func (co *Coordinator) logError(msg string, err error, fields logrus.Fields) {
	if co.Logger != nil {
		helpers.LogError(co.Logger, msg, err, fields)
	}
}

// AttachComment stores c and adds it to its issue's comment set.
func (co *Coordinator) AttachComment(ctx context.Context, c *entity.Comment) error {
	if err := co.Comments.Create(ctx, c); err != nil {
		return storeErr(err, msgIssueNotFound)
	}
	if err := co.Issues.AddComment(ctx, c.IssueID, c.ID); err != nil {
		if derr := co.Comments.Delete(ctx, c.ID); derr != nil {
			co.logError("comment compensation failed", derr, logrus.Fields{"comment_id": c.ID, "issue_id": c.IssueID})
		}
		return storeErr(err, msgIssueNotFound)
	}
	return nil
}

// DetachComment removes c from its issue's set, then deletes the record.
func (co *Coordinator) DetachComment(ctx context.Context, c *entity.Comment) error {
	refRemoved := true
	if err := co.Issues.RemoveComment(ctx, c.IssueID, c.ID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return storeErr(err, msgIssueNotFound)
		}
		refRemoved = false
	}
	if err := co.Comments.Delete(ctx, c.ID); err != nil {
		if refRemoved {
			if aerr := co.Issues.AddComment(ctx, c.IssueID, c.ID); aerr != nil {
				co.logError("comment reference restore failed", aerr, logrus.Fields{"comment_id": c.ID, "issue_id": c.IssueID})
			}
		}
		return storeErr(err, msgCommentNotFound)
	}
	return nil
}

// AttachFile stores the record for an already written blob and adds it to
// the issue's file set. The blob is left to the caller on failure.
func (co *Coordinator) AttachFile(ctx context.Context, f *entity.File) error {
	if err := co.Files.Create(ctx, f); err != nil {
		return storeErr(err, msgIssueNotFound)
	}
	if err := co.Issues.AddFile(ctx, f.IssueID, f.ID); err != nil {
		if derr := co.Files.Delete(ctx, f.ID); derr != nil {
			co.logError("file compensation failed", derr, logrus.Fields{"file_id": f.ID, "issue_id": f.IssueID})
		}
		return storeErr(err, msgIssueNotFound)
	}
	return nil
}

// DetachFile removes f from its issue's set, deletes the record, then the
// blob. A blob that cannot be removed is logged, not returned.
func (co *Coordinator) DetachFile(ctx context.Context, f *entity.File) error {
	refRemoved := true
	if err := co.Issues.RemoveFile(ctx, f.IssueID, f.ID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return storeErr(err, msgIssueNotFound)
		}
		refRemoved = false
	}
	if err := co.Files.Delete(ctx, f.ID); err != nil {
		if refRemoved {
			if aerr := co.Issues.AddFile(ctx, f.IssueID, f.ID); aerr != nil {
				co.logError("file reference restore failed", aerr, logrus.Fields{"file_id": f.ID, "issue_id": f.IssueID})
			}
		}
		return storeErr(err, msgFileNotFound)
	}
	if err := co.Blobs.Delete(ctx, f.BlobPath); err != nil {
		co.logError("blob delete failed", err, logrus.Fields{"file_id": f.ID, "blob": f.BlobPath})
	}
	return nil
}

// DeleteIssue removes every comment, every file record and blob, and then
// the issue itself. Each reference set is cleared right after its records
// go, so a failure part-way surfaces an error with the issue still
// consistent with what remains.
func (co *Coordinator) DeleteIssue(ctx context.Context, issueID string) (*CascadeReport, error) {
	report := &CascadeReport{IssueID: issueID}

	commentIDs, err := co.Comments.DeleteByIssue(ctx, issueID)
	if err != nil {
		return report, storeErr(err, msgIssueNotFound)
	}
	report.CommentsDeleted = len(commentIDs)
	if err := co.Issues.ClearComments(ctx, issueID); err != nil {
		return report, storeErr(err, msgIssueNotFound)
	}

	files, err := co.Files.DeleteByIssue(ctx, issueID)
	if err != nil {
		return report, storeErr(err, msgIssueNotFound)
	}
	report.FilesDeleted = len(files)
	for _, f := range files {
		if err := co.Blobs.Delete(ctx, f.BlobPath); err != nil {
			report.BlobFailures = append(report.BlobFailures, f.ID)
			co.logError("cascade blob delete failed", err, logrus.Fields{"file_id": f.ID, "issue_id": issueID, "blob": f.BlobPath})
			continue
		}
		report.BlobsDeleted++
	}
	if err := co.Issues.ClearFiles(ctx, issueID); err != nil {
		return report, storeErr(err, msgIssueNotFound)
	}

	if err := co.Issues.Delete(ctx, issueID); err != nil {
		return report, storeErr(err, msgIssueNotFound)
	}
	return report, nil
}
