package repository

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when deleting a row that child rows still point at.
	ErrReferenced = errors.New("record still referenced")
)
