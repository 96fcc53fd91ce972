package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

const fileColumns = `id::text, stored_name, original_name, mime_type, size_bytes, blob_path,
	issue_id::text, uploaded_by::text, uploaded_at`

type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

func scanFile(row rowScanner) (*entity.File, error) {
	f := &entity.File{}
	if err := row.Scan(&f.ID, &f.StoredName, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.BlobPath,
		&f.IssueID, &f.UploadedBy, &f.UploadedAt); err != nil {
		return nil, translate(err)
	}
	return f, nil
}

func collectFiles(rows pgx.Rows) ([]*entity.File, error) {
	defer rows.Close()
	out := []*entity.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, translate(rows.Err())
}

func (r *FileRepository) Create(ctx context.Context, f *entity.File) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO files (stored_name, original_name, mime_type, size_bytes, blob_path, issue_id, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6::uuid, $7::uuid)
		RETURNING id::text, uploaded_at
	`, f.StoredName, f.OriginalName, f.MimeType, f.SizeBytes, f.BlobPath, f.IssueID, f.UploadedBy)
	return translate(row.Scan(&f.ID, &f.UploadedAt))
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*entity.File, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanFile(r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *FileRepository) ListByIssue(ctx context.Context, issueID string) ([]*entity.File, error) {
	if !validID(issueID) {
		return []*entity.File{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM files WHERE issue_id = $1 ORDER BY uploaded_at DESC, id DESC`, issueID)
	if err != nil {
		return nil, translate(err)
	}
	return collectFiles(rows)
}

func (r *FileRepository) ListByUploader(ctx context.Context, userID string, opts repository.ListOptions) ([]*entity.File, int64, error) {
	if !validID(userID) {
		return []*entity.File{}, 0, nil
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM files WHERE uploaded_by = $1`, userID).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}
	offset, limit := offsetLimit(opts)
	rows, err := r.pool.Query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE uploaded_by = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, translate(err)
	}
	out, err := collectFiles(rows)
	return out, total, err
}

func (r *FileRepository) CountByIssue(ctx context.Context, issueID string) (int64, error) {
	if !validID(issueID) {
		return 0, nil
	}
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM files WHERE issue_id = $1`, issueID).Scan(&n)
	return n, translate(err)
}

func (r *FileRepository) DeleteByIssue(ctx context.Context, issueID string) ([]*entity.File, error) {
	if !validID(issueID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `DELETE FROM files WHERE issue_id = $1 RETURNING `+fileColumns, issueID)
	if err != nil {
		return nil, translate(err)
	}
	return collectFiles(rows)
}

func (r *FileRepository) Stats(ctx context.Context) (*entity.FileStats, error) {
	stats := &entity.FileStats{ByMimeType: []entity.MimeTypeStats{}}
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(size_bytes), 0)::bigint, COALESCE(avg(size_bytes), 0)::float8
		FROM files
	`).Scan(&stats.Overall.TotalFiles, &stats.Overall.TotalSize, &stats.Overall.AvgSize)
	if err != nil {
		return nil, translate(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT mime_type, count(*), COALESCE(sum(size_bytes), 0)::bigint
		FROM files
		GROUP BY mime_type
		ORDER BY count(*) DESC, mime_type
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.MimeTypeStats
		if err := rows.Scan(&m.Type, &m.Count, &m.TotalSize); err != nil {
			return nil, translate(err)
		}
		stats.ByMimeType = append(stats.ByMimeType, m)
	}
	return stats, translate(rows.Err())
}

var _ repository.FileRepository = (*FileRepository)(nil)
