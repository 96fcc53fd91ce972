package entity

import (
	"slices"
	"time"
)

type IssueStatus string

const (
	IssueStatusPending  IssueStatus = "pending"
	IssueStatusComplete IssueStatus = "complete"
)

func (s IssueStatus) Valid() bool {
	return s == IssueStatusPending || s == IssueStatusComplete
}

type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh:
		return true
	}
	return false
}

const (
	IssueTitleMaxLen       = 200
	IssueDescriptionMaxLen = 2000
)

// Issue owns its comments and files. CommentIDs and FileIDs are the
// reference sets kept in step with the child records.
type Issue struct {
	ID          string
	Title       string
	Description string
	Status      IssueStatus
	Priority    IssuePriority
	AssignedTo  string // empty when unassigned
	CreatedBy   string
	CommentIDs  []string
	FileIDs     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanModify reports whether userID is the creator or the assignee.
func (i *Issue) CanModify(userID string) bool {
	return userID != "" && (i.CreatedBy == userID || i.AssignedTo == userID)
}

func (i *Issue) IsCreator(userID string) bool {
	return userID != "" && i.CreatedBy == userID
}

func (i *Issue) CommentCount() int { return len(i.CommentIDs) }
func (i *Issue) FileCount() int    { return len(i.FileIDs) }

func (i *Issue) HasComment(id string) bool { return slices.Contains(i.CommentIDs, id) }
func (i *Issue) HasFile(id string) bool    { return slices.Contains(i.FileIDs, id) }

// Clone returns a deep copy; the reference slices are not shared.
func (i *Issue) Clone() *Issue {
	c := *i
	c.CommentIDs = slices.Clone(i.CommentIDs)
	c.FileIDs = slices.Clone(i.FileIDs)
	return &c
}
