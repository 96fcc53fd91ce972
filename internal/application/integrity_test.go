package application

import (
	"context"
	"os"
	"testing"
)

func TestDeleteIssueCascades(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a@x.com"), f.user(t, "b@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, b)
	other := f.issue(t, a, nil)

	for _, body := range []string{"one", "two", "three"} {
		if _, err := f.commentSvc.Create(ctx, b.ID, issue.ID, body); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	if _, err := f.commentSvc.Create(ctx, a.ID, other.ID, "survivor"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	views, err := f.fileSvc.Upload(ctx, a.ID, issue.ID, []UploadFile{
		textUpload("a.txt", []byte("aaa")),
		textUpload("b.txt", []byte("bbb")),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var blobs []string
	for _, v := range views {
		rec, err := f.files.GetByID(ctx, v.ID)
		if err != nil {
			t.Fatalf("file record: %v", err)
		}
		blobs = append(blobs, rec.BlobPath)
	}
	if stored := f.reload(t, issue.ID); !stored.HasFile(views[0].ID) || !stored.HasFile(views[1].ID) {
		t.Fatal("uploaded files must be referenced by the issue")
	}

	report, err := f.issueSvc.Delete(ctx, a.ID, issue.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if report.CommentsDeleted != 3 || report.FilesDeleted != 2 || report.BlobsDeleted != 2 || len(report.BlobFailures) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	if _, total, _ := f.comments.ListByIssue(ctx, issue.ID, repoAll); total != 0 {
		t.Fatalf("orphaned comments: %d", total)
	}
	if files, _ := f.files.ListByIssue(ctx, issue.ID); len(files) != 0 {
		t.Fatalf("orphaned files: %d", len(files))
	}
	for _, p := range blobs {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("blob %s still on disk", p)
		}
	}
	if n, _ := f.comments.CountByIssue(ctx, other.ID); n != 1 {
		t.Fatalf("unrelated issue lost comments: %d", n)
	}
}

func TestDeleteIssueToleratesMissingBlob(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	views, err := f.fileSvc.Upload(ctx, a.ID, issue.ID, []UploadFile{textUpload("a.txt", []byte("a"))})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	rec, _ := f.files.GetByID(ctx, views[0].ID)
	_ = os.Remove(rec.BlobPath)

	report, err := f.coord.DeleteIssue(ctx, issue.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if report.FilesDeleted != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := f.issues.GetByID(ctx, issue.ID); err == nil {
		t.Fatal("issue should be gone")
	}
}

func TestAttachCommentCompensates(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	f.coord.Issues = &flakyIssues{IssueRepository: f.issues, failAddComment: true}
	if _, err := f.commentSvc.Create(ctx, a.ID, issue.ID, "lost"); err == nil {
		t.Fatal("expected create to fail")
	}
	if n, _ := f.comments.CountByIssue(ctx, issue.ID); n != 0 {
		t.Fatalf("comment record left behind: %d", n)
	}
}

func TestAttachFileCompensates(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	f.coord.Issues = &flakyIssues{IssueRepository: f.issues, failAddFile: true}
	if _, err := f.fileSvc.Upload(ctx, a.ID, issue.ID, []UploadFile{textUpload("a.txt", []byte("a"))}); err == nil {
		t.Fatal("expected upload to fail")
	}
	assertNoFiles(t, f, issue.ID)
	assertEmptyDir(t, f.blobs.Root())
}

func TestDetachCommentRestoresReference(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	c, err := f.commentSvc.Create(ctx, a.ID, issue.ID, "sticky")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.coord.Comments = &flakyComments{CommentRepository: f.comments}
	if err := f.commentSvc.Delete(ctx, a.ID, c.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	stored := f.reload(t, issue.ID)
	if !stored.HasComment(c.ID) {
		t.Fatal("surviving comment must stay referenced")
	}
}
