package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

type IssueRepository struct {
	s *Store
}

func (r *IssueRepository) Create(_ context.Context, i *entity.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[i.CreatedBy]; !ok {
		return repository.ErrNotFound
	}
	if i.AssignedTo != "" {
		if _, ok := r.s.users[i.AssignedTo]; !ok {
			return repository.ErrNotFound
		}
	}
	id, seq, now := r.s.next()
	i.ID, i.CreatedAt, i.UpdatedAt = id, now, now
	i.CommentIDs = []string{}
	i.FileIDs = []string{}
	r.s.issues[id] = &issueRow{seq: seq, v: i.Clone()}
	return nil
}

func (r *IssueRepository) GetByID(_ context.Context, id string) (*entity.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row.v.Clone(), nil
}

func (r *IssueRepository) GetByIDs(_ context.Context, ids []string) ([]*entity.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Issue
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		row, ok := r.s.issues[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, row.v.Clone())
	}
	return out, nil
}

func matches(i *entity.Issue, f repository.IssueFilter) bool {
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.Priority != "" && i.Priority != f.Priority {
		return false
	}
	if f.AssignedTo != "" && i.AssignedTo != f.AssignedTo {
		return false
	}
	if f.CreatedBy != "" && i.CreatedBy != f.CreatedBy {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(i.Title), q) ||
			strings.Contains(strings.ToLower(i.Description), q)
	}
	return true
}

func (r *IssueRepository) List(_ context.Context, f repository.IssueFilter, opts repository.ListOptions) ([]*entity.Issue, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []*issueRow
	for _, row := range r.s.issues {
		if matches(row.v, f) {
			rows = append(rows, row)
		}
	}
	newestFirst(rows,
		func(r *issueRow) time.Time { return r.v.CreatedAt },
		func(r *issueRow) int64 { return r.seq })

	paged := page(rows, opts)
	out := make([]*entity.Issue, 0, len(paged))
	for _, row := range paged {
		out = append(out, row.v.Clone())
	}
	return out, int64(len(rows)), nil
}

func (r *IssueRepository) Update(_ context.Context, i *entity.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.issues[i.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if i.AssignedTo != "" {
		if _, ok := r.s.users[i.AssignedTo]; !ok {
			return repository.ErrNotFound
		}
	}
	// Reference sets are owned by the Add/Remove/Clear calls.
	row.v.Title = i.Title
	row.v.Description = i.Description
	row.v.Status = i.Status
	row.v.Priority = i.Priority
	row.v.AssignedTo = i.AssignedTo
	row.v.UpdatedAt = r.s.now()
	i.UpdatedAt = row.v.UpdatedAt
	return nil
}

func (r *IssueRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.issues[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range r.s.comments {
		if c.v.IssueID == id {
			return repository.ErrReferenced
		}
	}
	for _, f := range r.s.files {
		if f.v.IssueID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.issues, id)
	return nil
}

// mutate applies fn to the stored issue's reference sets under the write lock.
func (r *IssueRepository) mutate(issueID string, fn func(i *entity.Issue)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.issues[issueID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(row.v)
	return nil
}

func addRef(set []string, id string) []string {
	if slices.Contains(set, id) {
		return set
	}
	return append(set, id)
}

func removeRef(set []string, id string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == id })
}

func (r *IssueRepository) AddComment(_ context.Context, issueID, commentID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.CommentIDs = addRef(i.CommentIDs, commentID) })
}

func (r *IssueRepository) RemoveComment(_ context.Context, issueID, commentID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.CommentIDs = removeRef(i.CommentIDs, commentID) })
}

func (r *IssueRepository) ClearComments(_ context.Context, issueID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.CommentIDs = []string{} })
}

func (r *IssueRepository) AddFile(_ context.Context, issueID, fileID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.FileIDs = addRef(i.FileIDs, fileID) })
}

func (r *IssueRepository) RemoveFile(_ context.Context, issueID, fileID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.FileIDs = removeRef(i.FileIDs, fileID) })
}

func (r *IssueRepository) ClearFiles(_ context.Context, issueID string) error {
	return r.mutate(issueID, func(i *entity.Issue) { i.FileIDs = []string{} })
}

var _ repository.IssueRepository = (*IssueRepository)(nil)
