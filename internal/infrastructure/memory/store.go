// Package memory is a process-local implementation of the repository
// interfaces. It backs DB_DRIVER=memory and the test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

// Store holds every table behind one lock, so a repository call observes
// and mutates a consistent snapshot.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[string]*userRow
	issues   map[string]*issueRow
	comments map[string]*commentRow
	files    map[string]*fileRow
	now      func() time.Time
}

type userRow struct {
	seq int64
	v   entity.User
}

type issueRow struct {
	seq int64
	v   *entity.Issue
}

type commentRow struct {
	seq int64
	v   entity.Comment
}

type fileRow struct {
	seq int64
	v   entity.File
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*userRow),
		issues:   make(map[string]*issueRow),
		comments: make(map[string]*commentRow),
		files:    make(map[string]*fileRow),
		now:      time.Now,
	}
}

// Ping satisfies the health check contract.
func (s *Store) Ping(context.Context) error { return nil }

// Repositories returns the four repository views over the store.
func (s *Store) Repositories() (*UserRepository, *IssueRepository, *CommentRepository, *FileRepository) {
	return &UserRepository{s: s}, &IssueRepository{s: s}, &CommentRepository{s: s}, &FileRepository{s: s}
}

// next must be called with mu held for writing.
func (s *Store) next() (string, int64, time.Time) {
	s.seq++
	return uuid.NewString(), s.seq, s.now()
}

// newestFirst orders by timestamp descending, insertion order breaking ties.
func newestFirst[T any](rows []T, at func(T) time.Time, seq func(T) int64) {
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := at(rows[i]), at(rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return seq(rows[i]) > seq(rows[j])
	})
}

func page[T any](rows []T, opts repository.ListOptions) []T {
	offset, limit := opts.Offset, opts.Limit
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
