package application

import repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListParams is a 1-based page request.
type ListParams struct {
	Page  int
	Limit int
}

func (p ListParams) normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Options converts the page request to offset/limit, skip = (page-1)*limit.
func (p ListParams) Options() repo.ListOptions {
	p = p.normalize()
	return repo.ListOptions{Offset: (p.Page - 1) * p.Limit, Limit: p.Limit}
}

// Page is one page of results plus what the caller needs to build links.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

func newPage[T any](items []T, total int64, p ListParams) *Page[T] {
	p = p.normalize()
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
