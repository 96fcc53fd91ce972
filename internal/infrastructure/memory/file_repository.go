package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

type FileRepository struct {
	s *Store
}

func (r *FileRepository) Create(_ context.Context, f *entity.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.issues[f.IssueID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.users[f.UploadedBy]; !ok {
		return repository.ErrNotFound
	}
	for _, row := range r.s.files {
		if row.v.BlobPath == f.BlobPath {
			return repository.ErrDuplicate
		}
	}
	id, seq, now := r.s.next()
	f.ID, f.UploadedAt = id, now
	r.s.files[id] = &fileRow{seq: seq, v: *f}
	return nil
}

func (r *FileRepository) GetByID(_ context.Context, id string) (*entity.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f := row.v
	return &f, nil
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.files, id)
	return nil
}

func (r *FileRepository) collect(keep func(*entity.File) bool) []*fileRow {
	var rows []*fileRow
	for _, row := range r.s.files {
		if keep(&row.v) {
			rows = append(rows, row)
		}
	}
	newestFirst(rows,
		func(r *fileRow) time.Time { return r.v.UploadedAt },
		func(r *fileRow) int64 { return r.seq })
	return rows
}

func toFiles(rows []*fileRow) []*entity.File {
	out := make([]*entity.File, 0, len(rows))
	for _, row := range rows {
		f := row.v
		out = append(out, &f)
	}
	return out
}

func (r *FileRepository) ListByIssue(_ context.Context, issueID string) ([]*entity.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return toFiles(r.collect(func(f *entity.File) bool { return f.IssueID == issueID })), nil
}

func (r *FileRepository) ListByUploader(_ context.Context, userID string, opts repository.ListOptions) ([]*entity.File, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.collect(func(f *entity.File) bool { return f.UploadedBy == userID })
	return toFiles(page(rows, opts)), int64(len(rows)), nil
}

func (r *FileRepository) CountByIssue(_ context.Context, issueID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, row := range r.s.files {
		if row.v.IssueID == issueID {
			n++
		}
	}
	return n, nil
}

func (r *FileRepository) DeleteByIssue(_ context.Context, issueID string) ([]*entity.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.File
	for id, row := range r.s.files {
		if row.v.IssueID == issueID {
			f := row.v
			out = append(out, &f)
			delete(r.s.files, id)
		}
	}
	return out, nil
}

func (r *FileRepository) Stats(_ context.Context) (*entity.FileStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &entity.FileStats{ByMimeType: []entity.MimeTypeStats{}}
	byType := make(map[string]*entity.MimeTypeStats)
	for _, row := range r.s.files {
		stats.Overall.TotalFiles++
		stats.Overall.TotalSize += row.v.SizeBytes
		m, ok := byType[row.v.MimeType]
		if !ok {
			m = &entity.MimeTypeStats{Type: row.v.MimeType}
			byType[row.v.MimeType] = m
		}
		m.Count++
		m.TotalSize += row.v.SizeBytes
	}
	if stats.Overall.TotalFiles > 0 {
		stats.Overall.AvgSize = float64(stats.Overall.TotalSize) / float64(stats.Overall.TotalFiles)
	}
	for _, m := range byType {
		stats.ByMimeType = append(stats.ByMimeType, *m)
	}
	sort.Slice(stats.ByMimeType, func(i, j int) bool {
		a, b := stats.ByMimeType[i], stats.ByMimeType[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Type < b.Type
	})
	return stats, nil
}

var _ repository.FileRepository = (*FileRepository)(nil)
