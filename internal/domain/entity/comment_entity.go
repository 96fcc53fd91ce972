package entity

import "time"

const CommentMaxLen = 1000

// Comment is threaded under an issue. UserID is the author.
type Comment struct {
	ID        string
	Content   string
	IssueID   string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
