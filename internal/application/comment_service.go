package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

const MaxRecentComments = 50

type CommentService struct {
	Comments    repo.CommentRepository
	Issues      repo.IssueRepository
	Users       repo.UserRepository
	Coordinator *Coordinator
	Notifier    *Notifier
	Logger      logrus.FieldLogger
}

func NewCommentService(comments repo.CommentRepository, issues repo.IssueRepository, users repo.UserRepository,
	co *Coordinator, notifier *Notifier, logger logrus.FieldLogger) *CommentService {
	return &CommentService{Comments: comments, Issues: issues, Users: users, Coordinator: co, Notifier: notifier, Logger: logger}
}

func (s *CommentService) pop() populator {
	return populator{userRepo: s.Users, issueRepo: s.Issues}
}

func (s *CommentService) view(ctx context.Context, c *entity.Comment, withIssue bool) (*CommentView, error) {
	views, err := s.pop().comments(ctx, []*entity.Comment{c}, withIssue)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CommentService) Create(ctx context.Context, actorID, issueID, content string) (*CommentView, error) {
	content, err := validateText("content", content, entity.CommentMaxLen)
	if err != nil {
		return nil, err
	}
	issue, err := s.Issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}

	c := &entity.Comment{Content: content, IssueID: issue.ID, UserID: actorID}
	if err := s.Coordinator.AttachComment(ctx, c); err != nil {
		return nil, err
	}
	s.notify(ctx, issue, c)
	return s.view(ctx, c, false)
}

func (s *CommentService) Get(ctx context.Context, id string) (*CommentView, error) {
	c, err := s.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgCommentNotFound)
	}
	return s.view(ctx, c, true)
}

func (s *CommentService) Update(ctx context.Context, actorID, id, content string) (*CommentView, error) {
	content, err := validateText("content", content, entity.CommentMaxLen)
	if err != nil {
		return nil, err
	}
	c, err := s.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgCommentNotFound)
	}
	if c.UserID != actorID {
		return nil, apperror.Authorization("Only the comment author can edit this comment")
	}
	c.Content = content
	if err := s.Comments.Update(ctx, c); err != nil {
		return nil, storeErr(err, msgCommentNotFound)
	}
	return s.view(ctx, c, false)
}

// Delete is open to the author and to the creator of the parent issue.
func (s *CommentService) Delete(ctx context.Context, actorID, id string) error {
	c, err := s.Comments.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, msgCommentNotFound)
	}
	if c.UserID != actorID {
		issue, err := s.Issues.GetByID(ctx, c.IssueID)
		if err != nil && !apperror.IsKind(storeErr(err, ""), apperror.KindNotFound) {
			return storeErr(err, msgIssueNotFound)
		}
		if issue == nil || !issue.IsCreator(actorID) {
			return apperror.Authorization("Only the comment author or the issue creator can delete this comment")
		}
	}
	return s.Coordinator.DetachComment(ctx, c)
}

func (s *CommentService) ListForIssue(ctx context.Context, issueID string, p ListParams) (*Page[CommentView], error) {
	if _, err := s.Issues.GetByID(ctx, issueID); err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	comments, total, err := s.Comments.ListByIssue(ctx, issueID, p.Options())
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	views, err := s.pop().comments(ctx, comments, false)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, p), nil
}

func (s *CommentService) ListMine(ctx context.Context, actorID string, p ListParams) (*Page[CommentView], error) {
	comments, total, err := s.Comments.ListByUser(ctx, actorID, p.Options())
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	views, err := s.pop().comments(ctx, comments, true)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, p), nil
}

// ListRecent returns the newest comments across all issues.
func (s *CommentService) ListRecent(ctx context.Context, limit int) ([]CommentView, error) {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxRecentComments {
		limit = MaxRecentComments
	}
	comments, err := s.Comments.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeErr(err, msgCommentNotFound)
	}
	return s.pop().comments(ctx, comments, true)
}

// notify tells the issue creator and assignee about a new comment.
func (s *CommentService) notify(ctx context.Context, issue *entity.Issue, c *entity.Comment) {
	if !s.Notifier.enabled() {
		return
	}
	ids := []string{c.UserID, issue.CreatedBy}
	if issue.AssignedTo != "" {
		ids = append(ids, issue.AssignedTo)
	}
	users, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("comment_id", c.ID).Warn("load comment watchers failed")
		}
		return
	}
	var author *entity.User
	watchers := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if u.ID == c.UserID {
			author = u
			continue
		}
		watchers = append(watchers, u)
	}
	s.Notifier.CommentAdded(ctx, issue, c, author, watchers...)
}
