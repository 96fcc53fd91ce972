package application

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

// IssueSearcher is the optional full-text index (search.IssueIndex).
type IssueSearcher interface {
	IndexIssue(ctx context.Context, i *entity.Issue) error
	DeleteIssue(ctx context.Context, id string) error
	Search(ctx context.Context, q string, limit int) ([]string, int64, error)
}

type IssueService struct {
	Issues      repo.IssueRepository
	Users       repo.UserRepository
	Comments    repo.CommentRepository
	Files       repo.FileRepository
	Coordinator *Coordinator
	Search      IssueSearcher
	Notifier    *Notifier
	Logger      logrus.FieldLogger
}

func NewIssueService(issues repo.IssueRepository, users repo.UserRepository, comments repo.CommentRepository, files repo.FileRepository,
	co *Coordinator, search IssueSearcher, notifier *Notifier, logger logrus.FieldLogger) *IssueService {
	return &IssueService{
		Issues:      issues,
		Users:       users,
		Comments:    comments,
		Files:       files,
		Coordinator: co,
		Search:      search,
		Notifier:    notifier,
		Logger:      logger,
	}
}

type CreateIssueInput struct {
	Title       string
	Description string
	Priority    entity.IssuePriority
	AssignedTo  string
}

// UpdateIssueInput is a partial update; nil fields are left unchanged and
// an empty AssignedTo unassigns.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	Status      *entity.IssueStatus
	Priority    *entity.IssuePriority
	AssignedTo  *string
}

// MineRole selects the relation used by ListMine.
type MineRole string

const (
	MineAssigned MineRole = "assigned"
	MineCreated  MineRole = "created"
)

// detailCommentLimit caps the comments embedded in an issue detail.
const detailCommentLimit = 50

func (s *IssueService) pop() populator {
	return populator{userRepo: s.Users, issueRepo: s.Issues}
}

func validateText(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperror.Validation(field + " is required").WithDetails(map[string]string{field: "is required"})
	}
	if utf8.RuneCountInString(v) > max {
		msg := "must be at most " + strconv.Itoa(max) + " characters long"
		return "", apperror.Validation(field + " " + msg).WithDetails(map[string]string{field: msg})
	}
	return v, nil
}

// checkAssignee verifies a non-empty assignee refers to an existing user.
func (s *IssueService) checkAssignee(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if apperror.IsKind(storeErr(err, ""), apperror.KindNotFound) {
			return nil, apperror.Validation(msgAssigneeNotFound).WithDetails(map[string]string{"assignedTo": "user does not exist"})
		}
		return nil, apperror.Database(err)
	}
	return u, nil
}

func (s *IssueService) Create(ctx context.Context, actorID string, in CreateIssueInput) (*IssueView, error) {
	title, err := validateText("title", in.Title, entity.IssueTitleMaxLen)
	if err != nil {
		return nil, err
	}
	desc, err := validateText("description", in.Description, entity.IssueDescriptionMaxLen)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = entity.IssuePriorityMedium
	}
	if !priority.Valid() {
		return nil, apperror.Validation("Invalid priority").WithDetails(map[string]string{"priority": "must be one of: low, medium, high"})
	}
	assignee, err := s.checkAssignee(ctx, strings.TrimSpace(in.AssignedTo))
	if err != nil {
		return nil, err
	}

	issue := &entity.Issue{
		Title:       title,
		Description: desc,
		Status:      entity.IssueStatusPending,
		Priority:    priority,
		CreatedBy:   actorID,
	}
	if assignee != nil {
		issue.AssignedTo = assignee.ID
	}
	if err := s.Issues.Create(ctx, issue); err != nil {
		if apperror.IsKind(storeErr(err, ""), apperror.KindNotFound) {
			return nil, apperror.Validation(msgAssigneeNotFound)
		}
		return nil, apperror.Database(err)
	}

	s.index(ctx, issue)
	if assignee != nil {
		s.notifyAssigned(ctx, issue, assignee, actorID)
	}
	v, err := s.pop().issue(ctx, issue)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *IssueService) Get(ctx context.Context, id string) (*IssueDetail, error) {
	issue, err := s.Issues.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	pop := s.pop()
	view, err := pop.issue(ctx, issue)
	if err != nil {
		return nil, err
	}

	detail := &IssueDetail{Issue: view, Comments: []CommentView{}, Files: []FileView{}}
	if n := issue.CommentCount(); n > 0 {
		comments, _, err := s.Comments.ListByIssue(ctx, id, repo.ListOptions{Limit: min(n, detailCommentLimit)})
		if err != nil {
			return nil, storeErr(err, msgIssueNotFound)
		}
		if detail.Comments, err = pop.comments(ctx, comments, false); err != nil {
			return nil, err
		}
	}
	if issue.FileCount() > 0 {
		files, err := s.Files.ListByIssue(ctx, id)
		if err != nil {
			return nil, storeErr(err, msgIssueNotFound)
		}
		if detail.Files, err = pop.files(ctx, files); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *IssueService) List(ctx context.Context, f repo.IssueFilter, p ListParams) (*Page[IssueView], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.Validation("Invalid status filter")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, apperror.Validation("Invalid priority filter")
	}
	issues, total, err := s.Issues.List(ctx, f, p.Options())
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	views, err := s.pop().issues(ctx, issues)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, p), nil
}

func (s *IssueService) ListMine(ctx context.Context, actorID string, role MineRole, f repo.IssueFilter, p ListParams) (*Page[IssueView], error) {
	switch role {
	case MineAssigned:
		f.AssignedTo = actorID
	case MineCreated:
		f.CreatedBy = actorID
	default:
		return nil, apperror.Validation("Unknown relation " + string(role))
	}
	return s.List(ctx, f, p)
}

// loadForWrite applies the existence check before the permission check.
func (s *IssueService) loadForWrite(ctx context.Context, actorID, id string) (*entity.Issue, error) {
	issue, err := s.Issues.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	if !issue.CanModify(actorID) {
		return nil, apperror.Authorization("Only the issue creator or assignee can modify this issue")
	}
	return issue, nil
}

func (s *IssueService) Update(ctx context.Context, actorID, id string, in UpdateIssueInput) (*IssueView, error) {
	issue, err := s.loadForWrite(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if issue.Title, err = validateText("title", *in.Title, entity.IssueTitleMaxLen); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if issue.Description, err = validateText("description", *in.Description, entity.IssueDescriptionMaxLen); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperror.Validation("Invalid status")
		}
		issue.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperror.Validation("Invalid priority")
		}
		issue.Priority = *in.Priority
	}

	var newAssignee *entity.User
	if in.AssignedTo != nil {
		next := strings.TrimSpace(*in.AssignedTo)
		if next != issue.AssignedTo {
			if newAssignee, err = s.checkAssignee(ctx, next); err != nil {
				return nil, err
			}
			issue.AssignedTo = next
		}
	}

	if err := s.Issues.Update(ctx, issue); err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	s.index(ctx, issue)
	if newAssignee != nil {
		s.notifyAssigned(ctx, issue, newAssignee, actorID)
	}
	v, err := s.pop().issue(ctx, issue)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *IssueService) UpdateStatus(ctx context.Context, actorID, id string, status entity.IssueStatus) (*IssueView, error) {
	if !status.Valid() {
		return nil, apperror.Validation("Status must be one of: pending, complete")
	}
	return s.Update(ctx, actorID, id, UpdateIssueInput{Status: &status})
}

// Delete is restricted to the creator; an assignee gets Authorization.
func (s *IssueService) Delete(ctx context.Context, actorID, id string) (*CascadeReport, error) {
	issue, err := s.Issues.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	if !issue.IsCreator(actorID) {
		return nil, apperror.Authorization("Only the issue creator can delete this issue")
	}
	report, err := s.Coordinator.DeleteIssue(ctx, id)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("issue_id", id).Error("issue cascade incomplete")
		}
		return report, err
	}
	if s.Search != nil {
		c, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.Search.DeleteIssue(c, id); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("issue_id", id).Warn("search index delete failed")
		}
	}
	return report, nil
}

// SearchIssues ranks through the full-text index when one is configured and
// falls back to the substring filter otherwise or when the index fails.
func (s *IssueService) SearchIssues(ctx context.Context, q string, limit int) ([]IssueView, int64, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, apperror.Validation("Search query is required").WithDetails(map[string]string{"q": "is required"})
	}
	if limit < 1 || limit > 50 {
		limit = DefaultPageLimit
	}
	if s.Search != nil {
		views, total, err := s.searchIndex(ctx, q, limit)
		if err == nil {
			return views, total, nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("search index unavailable, falling back to store filter")
		}
	}
	page, err := s.List(ctx, repo.IssueFilter{Search: q}, ListParams{Page: 1, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (s *IssueService) searchIndex(ctx context.Context, q string, limit int) ([]IssueView, int64, error) {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ids, total, err := s.Search.Search(c, q, limit)
	if err != nil {
		return nil, 0, err
	}
	found, err := s.Issues.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, storeErr(err, msgIssueNotFound)
	}
	byID := make(map[string]*entity.Issue, len(found))
	for _, i := range found {
		byID[i.ID] = i
	}
	// keep the index's ranking; skip hits deleted since indexing
	ordered := make([]*entity.Issue, 0, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			ordered = append(ordered, i)
		}
	}
	views, err := s.pop().issues(ctx, ordered)
	return views, total, err
}

func (s *IssueService) index(ctx context.Context, issue *entity.Issue) {
	if s.Search == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Search.IndexIssue(c, issue); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("issue_id", issue.ID).Warn("search index failed")
	}
}

func (s *IssueService) notifyAssigned(ctx context.Context, issue *entity.Issue, assignee *entity.User, actorID string) {
	if !s.Notifier.enabled() {
		return
	}
	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		return
	}
	s.Notifier.IssueAssigned(ctx, issue, assignee, actor)
}
