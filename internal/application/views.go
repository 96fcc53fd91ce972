package application

import (
	"context"
	"time"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

// Views are the shapes handed to the HTTP layer. None of them carries a
// password hash or a blob location.

type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

type IssueSummary struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	Status entity.IssueStatus `json:"status"`
}

type IssueView struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       entity.IssueStatus   `json:"status"`
	Priority     entity.IssuePriority `json:"priority"`
	AssignedTo   *UserSummary         `json:"assignedTo"`
	CreatedBy    *UserSummary         `json:"createdBy"`
	CommentCount int                  `json:"commentCount"`
	FileCount    int                  `json:"fileCount"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

type CommentView struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	IssueID   string        `json:"issueId"`
	Issue     *IssueSummary `json:"issue,omitempty"`
	User      *UserSummary  `json:"user"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type FileView struct {
	ID           string       `json:"id"`
	OriginalName string       `json:"originalName"`
	StoredName   string       `json:"storedName"`
	MimeType     string       `json:"mimeType"`
	Size         int64        `json:"size"`
	IssueID      string       `json:"issueId"`
	UploadedBy   *UserSummary `json:"uploadedBy"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	DownloadURL  string       `json:"downloadUrl"`
}

type IssueDetail struct {
	Issue    IssueView     `json:"issue"`
	Comments []CommentView `json:"comments"`
	Files    []FileView    `json:"files"`
}

func NewUserView(u *entity.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newUserSummary(u *entity.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, FullName: u.FullName()}
}

// populator performs the explicit join from ids to user and issue summaries.
type populator struct {
	userRepo  repo.UserRepository
	issueRepo repo.IssueRepository
}

func (p populator) userMap(ctx context.Context, ids ...string) (map[string]*UserSummary, error) {
	want := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			want = append(want, id)
		}
	}
	out := make(map[string]*UserSummary, len(want))
	if len(want) == 0 {
		return out, nil
	}
	users, err := p.userRepo.GetByIDs(ctx, want)
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	for _, u := range users {
		out[u.ID] = newUserSummary(u)
	}
	return out, nil
}

func (p populator) issues(ctx context.Context, issues []*entity.Issue) ([]IssueView, error) {
	ids := make([]string, 0, 2*len(issues))
	for _, i := range issues {
		ids = append(ids, i.CreatedBy, i.AssignedTo)
	}
	users, err := p.userMap(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]IssueView, 0, len(issues))
	for _, i := range issues {
		out = append(out, IssueView{
			ID:           i.ID,
			Title:        i.Title,
			Description:  i.Description,
			Status:       i.Status,
			Priority:     i.Priority,
			AssignedTo:   users[i.AssignedTo],
			CreatedBy:    users[i.CreatedBy],
			CommentCount: i.CommentCount(),
			FileCount:    i.FileCount(),
			CreatedAt:    i.CreatedAt,
			UpdatedAt:    i.UpdatedAt,
		})
	}
	return out, nil
}

func (p populator) issue(ctx context.Context, i *entity.Issue) (IssueView, error) {
	views, err := p.issues(ctx, []*entity.Issue{i})
	if err != nil {
		return IssueView{}, err
	}
	return views[0], nil
}

// comments joins authors and, when withIssue is set, the parent issue summary.
func (p populator) comments(ctx context.Context, comments []*entity.Comment, withIssue bool) ([]CommentView, error) {
	userIDs := make([]string, 0, len(comments))
	issueIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
		issueIDs = append(issueIDs, c.IssueID)
	}
	users, err := p.userMap(ctx, userIDs...)
	if err != nil {
		return nil, err
	}
	issues := map[string]*IssueSummary{}
	if withIssue && len(issueIDs) > 0 {
		found, err := p.issueRepo.GetByIDs(ctx, issueIDs)
		if err != nil {
			return nil, storeErr(err, msgIssueNotFound)
		}
		for _, i := range found {
			issues[i.ID] = &IssueSummary{ID: i.ID, Title: i.Title, Status: i.Status}
		}
	}
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentView{
			ID:        c.ID,
			Content:   c.Content,
			IssueID:   c.IssueID,
			Issue:     issues[c.IssueID],
			User:      users[c.UserID],
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return out, nil
}

func (p populator) files(ctx context.Context, files []*entity.File) ([]FileView, error) {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.UploadedBy)
	}
	users, err := p.userMap(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]FileView, 0, len(files))
	for _, f := range files {
		out = append(out, FileView{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			StoredName:   f.StoredName,
			MimeType:     f.MimeType,
			Size:         f.SizeBytes,
			IssueID:      f.IssueID,
			UploadedBy:   users[f.UploadedBy],
			UploadedAt:   f.UploadedAt,
			DownloadURL:  "/api/files/" + f.ID + "/download",
		})
	}
	return out, nil
}
