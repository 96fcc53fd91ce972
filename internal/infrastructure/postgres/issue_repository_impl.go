package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

const issueColumns = `id::text, title, description, status, priority, COALESCE(assigned_to::text, ''),
	created_by::text, comment_ids::text[], file_ids::text[], created_at, updated_at`

type IssueRepository struct {
	pool *pgxpool.Pool
}

func NewIssueRepository(pool *pgxpool.Pool) *IssueRepository {
	return &IssueRepository{pool: pool}
}

func scanIssue(row rowScanner) (*entity.Issue, error) {
	var (
		i                entity.Issue
		status, priority string
	)
	if err := row.Scan(&i.ID, &i.Title, &i.Description, &status, &priority, &i.AssignedTo,
		&i.CreatedBy, &i.CommentIDs, &i.FileIDs, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	i.Status = entity.IssueStatus(status)
	i.Priority = entity.IssuePriority(priority)
	if i.CommentIDs == nil {
		i.CommentIDs = []string{}
	}
	if i.FileIDs == nil {
		i.FileIDs = []string{}
	}
	return &i, nil
}

func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (r *IssueRepository) Create(ctx context.Context, i *entity.Issue) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO issues (title, description, status, priority, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5::uuid, $6::uuid)
		RETURNING id::text, created_at, updated_at
	`, i.Title, i.Description, string(i.Status), string(i.Priority), nullableUUID(i.AssignedTo), i.CreatedBy)

	if err := row.Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return translate(err)
	}
	i.CommentIDs = []string{}
	i.FileIDs = []string{}
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, id string) (*entity.Issue, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanIssue(r.pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id))
}

func (r *IssueRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Issue, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*entity.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, translate(rows.Err())
}

// escapeLike escapes LIKE metacharacters so search is a literal substring match.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// issueWhere builds the WHERE clause for f. ok is false when a filter can
// never match (malformed user id).
func issueWhere(f repository.IssueFilter) (clause string, args []any, ok bool) {
	var conds []string
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Priority != "" {
		add("priority = $%d", string(f.Priority))
	}
	if f.AssignedTo != "" {
		if !validID(f.AssignedTo) {
			return "", nil, false
		}
		add("assigned_to = $%d::uuid", f.AssignedTo)
	}
	if f.CreatedBy != "" {
		if !validID(f.CreatedBy) {
			return "", nil, false
		}
		add("created_by = $%d::uuid", f.CreatedBy)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add(`(title ILIKE $%[1]d ESCAPE '\' OR description ILIKE $%[1]d ESCAPE '\')`, "%"+escapeLike(s)+"%")
	}
	if len(conds) == 0 {
		return "", args, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func (r *IssueRepository) List(ctx context.Context, f repository.IssueFilter, opts repository.ListOptions) ([]*entity.Issue, int64, error) {
	where, args, ok := issueWhere(f)
	if !ok {
		return []*entity.Issue{}, 0, nil
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM issues`+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	offset, limit := offsetLimit(opts)
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM issues%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		issueColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	out := make([]*entity.Issue, 0, limit)
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, i)
	}
	return out, total, translate(rows.Err())
}

func (r *IssueRepository) Update(ctx context.Context, i *entity.Issue) error {
	if !validID(i.ID) {
		return repository.ErrNotFound
	}
	i.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE issues
		SET title = $1, description = $2, status = $3, priority = $4, assigned_to = $5::uuid, updated_at = $6
		WHERE id = $7
	`, i.Title, i.Description, string(i.Status), string(i.Priority), nullableUUID(i.AssignedTo), i.UpdatedAt, i.ID)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IssueRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", repository.ErrReferenced, err)
		}
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// addRef appends ref to column unless already present.
func (r *IssueRepository) addRef(ctx context.Context, column, issueID, ref string) error {
	if !validID(issueID) || !validID(ref) {
		return repository.ErrNotFound
	}
	q := fmt.Sprintf(`
		UPDATE issues SET %[1]s = array_append(%[1]s, $2::uuid)
		WHERE id = $1 AND NOT ($2::uuid = ANY(%[1]s))
	`, column)
	res, err := r.pool.Exec(ctx, q, issueID, ref)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 1 {
		return nil
	}
	// Nothing changed: either already a member or the issue is gone.
	return r.mustExist(ctx, issueID)
}

func (r *IssueRepository) removeRef(ctx context.Context, column, issueID, ref string) error {
	if !validID(issueID) {
		return repository.ErrNotFound
	}
	if !validID(ref) {
		return r.mustExist(ctx, issueID)
	}
	q := fmt.Sprintf(`UPDATE issues SET %[1]s = array_remove(%[1]s, $2::uuid) WHERE id = $1`, column)
	res, err := r.pool.Exec(ctx, q, issueID, ref)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IssueRepository) clearRefs(ctx context.Context, column, issueID string) error {
	if !validID(issueID) {
		return repository.ErrNotFound
	}
	q := fmt.Sprintf(`UPDATE issues SET %s = '{}' WHERE id = $1`, column)
	res, err := r.pool.Exec(ctx, q, issueID)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IssueRepository) mustExist(ctx context.Context, issueID string) error {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM issues WHERE id = $1)`, issueID).Scan(&ok); err != nil {
		return translate(err)
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IssueRepository) AddComment(ctx context.Context, issueID, commentID string) error {
	return r.addRef(ctx, "comment_ids", issueID, commentID)
}

func (r *IssueRepository) RemoveComment(ctx context.Context, issueID, commentID string) error {
	return r.removeRef(ctx, "comment_ids", issueID, commentID)
}

func (r *IssueRepository) ClearComments(ctx context.Context, issueID string) error {
	return r.clearRefs(ctx, "comment_ids", issueID)
}

func (r *IssueRepository) AddFile(ctx context.Context, issueID, fileID string) error {
	return r.addRef(ctx, "file_ids", issueID, fileID)
}

func (r *IssueRepository) RemoveFile(ctx context.Context, issueID, fileID string) error {
	return r.removeRef(ctx, "file_ids", issueID, fileID)
}

func (r *IssueRepository) ClearFiles(ctx context.Context, issueID string) error {
	return r.clearRefs(ctx, "file_ids", issueID)
}

var _ repository.IssueRepository = (*IssueRepository)(nil)
