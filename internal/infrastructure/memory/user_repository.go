package memory

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

type UserRepository struct {
	s *Store
}

// emailTaken must be called with mu held.
func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, row := range r.s.users {
		if id != exceptID && row.v.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = entity.NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, "") {
		return repository.ErrDuplicate
	}
	id, seq, now := r.s.next()
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	r.s.users[id] = &userRow{seq: seq, v: *u}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := row.v
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, row := range r.s.users {
		if row.v.Email == email {
			u := row.v
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		row, ok := r.s.users[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		u := row.v
		out = append(out, &u)
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Email = entity.NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, u.ID) {
		return repository.ErrDuplicate
	}
	u.CreatedAt = row.v.CreatedAt
	u.UpdatedAt = r.s.now()
	row.v = *u
	return nil
}

func (r *UserRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.users[id]
	return ok, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
