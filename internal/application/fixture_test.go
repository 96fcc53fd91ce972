package application

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/memory"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

type fixture struct {
	users    *memory.UserRepository
	issues   *memory.IssueRepository
	comments *memory.CommentRepository
	files    *memory.FileRepository
	blobs    *storage.DiskStore

	coord      *Coordinator
	authSvc    *AuthService
	issueSvc   *IssueService
	commentSvc *CommentService
	fileSvc    *FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users, issues, comments, files := memory.NewStore().Repositories()
	blobs, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	log := helpers.NewNopLogger()
	f := &fixture{users: users, issues: issues, comments: comments, files: files, blobs: blobs}
	f.coord = NewCoordinator(issues, comments, files, blobs, log)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	f.authSvc = NewAuthService(users, jwt, nil, log)
	f.issueSvc = NewIssueService(issues, users, comments, files, f.coord, nil, nil, log)
	f.commentSvc = NewCommentService(comments, issues, users, f.coord, nil, log)
	f.fileSvc = NewFileService(files, issues, users, blobs, f.coord, nil, FileConfig{
		MaxFileSize:  1024,
		MaxFiles:     5,
		AllowedTypes: []string{"text/plain", "image/png", "application/pdf"},
	}, log)
	return f
}

// user inserts a user directly, skipping bcrypt.
func (f *fixture) user(t *testing.T, email string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Password: "x", FirstName: email[:1], LastName: "Test"}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) issue(t *testing.T, creator *entity.User, assignee *entity.User) *IssueView {
	t.Helper()
	in := CreateIssueInput{Title: "Bug", Description: "desc", Priority: entity.IssuePriorityHigh}
	if assignee != nil {
		in.AssignedTo = assignee.ID
	}
	v, err := f.issueSvc.Create(context.Background(), creator.ID, in)
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return v
}

func (f *fixture) reload(t *testing.T, id string) *entity.Issue {
	t.Helper()
	i, err := f.issues.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload issue: %v", err)
	}
	return i
}

func textUpload(name string, body []byte) UploadFile {
	return UploadFile{
		OriginalName: name,
		Size:         int64(len(body)),
		DeclaredType: "text/plain",
		Open:         func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil },
	}
}

func wantKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperror.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

// flakyIssues fails the reference-set calls selected by the flags.
type flakyIssues struct {
	repo.IssueRepository
	failAddComment bool
	failAddFile    bool
}

func (r *flakyIssues) AddComment(ctx context.Context, issueID, commentID string) error {
	if r.failAddComment {
		return io.ErrUnexpectedEOF
	}
	return r.IssueRepository.AddComment(ctx, issueID, commentID)
}

func (r *flakyIssues) AddFile(ctx context.Context, issueID, fileID string) error {
	if r.failAddFile {
		return io.ErrUnexpectedEOF
	}
	return r.IssueRepository.AddFile(ctx, issueID, fileID)
}

// flakyComments fails Delete.
type flakyComments struct {
	repo.CommentRepository
}

func (r *flakyComments) Delete(context.Context, string) error { return io.ErrClosedPipe }

// flakyBlobs fails the nth Put (1-based).
type flakyBlobs struct {
	storage.BlobStore
	failOn int
	puts   int
}

func (b *flakyBlobs) Put(ctx context.Context, key string, r io.Reader, ct string) (string, int64, error) {
	b.puts++
	if b.puts == b.failOn {
		return "", 0, io.ErrShortWrite
	}
	return b.BlobStore.Put(ctx, key, r, ct)
}

var repoAll = repo.ListOptions{Limit: 1000}
