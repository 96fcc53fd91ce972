package memory

import (
	"context"
	"time"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

type CommentRepository struct {
	s *Store
}

func (r *CommentRepository) Create(_ context.Context, c *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.issues[c.IssueID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.users[c.UserID]; !ok {
		return repository.ErrNotFound
	}
	id, seq, now := r.s.next()
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	r.s.comments[id] = &commentRow{seq: seq, v: *c}
	return nil
}

func (r *CommentRepository) GetByID(_ context.Context, id string) (*entity.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := row.v
	return &c, nil
}

func (r *CommentRepository) Update(_ context.Context, c *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.comments[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.v.Content = c.Content
	row.v.UpdatedAt = r.s.now()
	c.UpdatedAt = row.v.UpdatedAt
	return nil
}

func (r *CommentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

// collect returns the matching comments newest-first. Callers hold mu.
func (r *CommentRepository) collect(keep func(*entity.Comment) bool) []*commentRow {
	var rows []*commentRow
	for _, row := range r.s.comments {
		if keep(&row.v) {
			rows = append(rows, row)
		}
	}
	newestFirst(rows,
		func(r *commentRow) time.Time { return r.v.CreatedAt },
		func(r *commentRow) int64 { return r.seq })
	return rows
}

func toComments(rows []*commentRow) []*entity.Comment {
	out := make([]*entity.Comment, 0, len(rows))
	for _, row := range rows {
		c := row.v
		out = append(out, &c)
	}
	return out
}

func (r *CommentRepository) ListByIssue(_ context.Context, issueID string, opts repository.ListOptions) ([]*entity.Comment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.collect(func(c *entity.Comment) bool { return c.IssueID == issueID })
	return toComments(page(rows, opts)), int64(len(rows)), nil
}

func (r *CommentRepository) ListByUser(_ context.Context, userID string, opts repository.ListOptions) ([]*entity.Comment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.collect(func(c *entity.Comment) bool { return c.UserID == userID })
	return toComments(page(rows, opts)), int64(len(rows)), nil
}

func (r *CommentRepository) ListRecent(_ context.Context, limit int) ([]*entity.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.collect(func(*entity.Comment) bool { return true })
	return toComments(page(rows, repository.ListOptions{Limit: limit})), nil
}

func (r *CommentRepository) CountByIssue(_ context.Context, issueID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, row := range r.s.comments {
		if row.v.IssueID == issueID {
			n++
		}
	}
	return n, nil
}

func (r *CommentRepository) DeleteByIssue(_ context.Context, issueID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for id, row := range r.s.comments {
		if row.v.IssueID == issueID {
			ids = append(ids, id)
			delete(r.s.comments, id)
		}
	}
	return ids, nil
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
