package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

const commentColumns = `id::text, content, issue_id::text, user_id::text, created_at, updated_at`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row rowScanner) (*entity.Comment, error) {
	c := &entity.Comment{}
	if err := row.Scan(&c.ID, &c.Content, &c.IssueID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func collectComments(rows pgx.Rows) ([]*entity.Comment, error) {
	defer rows.Close()
	out := []*entity.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, translate(rows.Err())
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO comments (content, issue_id, user_id)
		VALUES ($1, $2::uuid, $3::uuid)
		RETURNING id::text, created_at, updated_at
	`, c.Content, c.IssueID, c.UserID)
	return translate(row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt))
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	if !validID(c.ID) {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3`, c.Content, c.UpdatedAt, c.ID)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) listBy(ctx context.Context, column, value string, opts repository.ListOptions) ([]*entity.Comment, int64, error) {
	if !validID(value) {
		return []*entity.Comment{}, 0, nil
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE `+column+` = $1`, value).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}
	offset, limit := offsetLimit(opts)
	rows, err := r.pool.Query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, value, limit, offset)
	if err != nil {
		return nil, 0, translate(err)
	}
	out, err := collectComments(rows)
	return out, total, err
}

func (r *CommentRepository) ListByIssue(ctx context.Context, issueID string, opts repository.ListOptions) ([]*entity.Comment, int64, error) {
	return r.listBy(ctx, "issue_id", issueID, opts)
}

func (r *CommentRepository) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]*entity.Comment, int64, error) {
	return r.listBy(ctx, "user_id", userID, opts)
}

func (r *CommentRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Comment, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, translate(err)
	}
	return collectComments(rows)
}

func (r *CommentRepository) CountByIssue(ctx context.Context, issueID string) (int64, error) {
	if !validID(issueID) {
		return 0, nil
	}
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE issue_id = $1`, issueID).Scan(&n)
	return n, translate(err)
}

func (r *CommentRepository) DeleteByIssue(ctx context.Context, issueID string) ([]string, error) {
	if !validID(issueID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `DELETE FROM comments WHERE issue_id = $1 RETURNING id::text`, issueID)
	if err != nil {
		return nil, translate(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, translate(err)
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
