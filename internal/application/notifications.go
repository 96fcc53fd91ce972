package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/config"
	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/pkg/mailer"
	mailtpl "github.com/oksasatya/issue-tracker-api/pkg/mailer/templates"
)

// Publisher puts a JSON job on the email queue (helpers.RabbitPublisher).
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier enqueues email jobs. A nil *Notifier, or one without a
// publisher, drops every job. Publishing never fails the caller.
type Notifier struct {
	Publisher Publisher
	Config    *config.Config
	Logger    logrus.FieldLogger
}

func NewNotifier(p Publisher, cfg *config.Config, logger logrus.FieldLogger) *Notifier {
	return &Notifier{Publisher: p, Config: cfg, Logger: logger}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.Publisher != nil && n.Config != nil
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := n.Publisher.PublishJSON(c, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Warn("enqueue email failed")
	}
}

func (n *Notifier) Welcome(ctx context.Context, u *entity.User) {
	if !n.enabled() {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(n.Config, u.FirstName, u.Email),
	})
}

// IssueAssigned tells the assignee; self-assignment is not announced.
func (n *Notifier) IssueAssigned(ctx context.Context, i *entity.Issue, assignee, actor *entity.User) {
	if !n.enabled() || assignee == nil || actor == nil || assignee.ID == actor.ID {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       assignee.Email,
		Template: mailtpl.IssueAssigned,
		Data: mailtpl.NewIssueAssignedData(n.Config, assignee.FirstName, assignee.Email,
			mailtpl.WithActor(actor.FullName()),
			mailtpl.WithIssue(i.ID, i.Title, string(i.Priority)),
			mailtpl.WithTime(time.Now())),
	})
}

// CommentAdded tells each watcher other than the author.
func (n *Notifier) CommentAdded(ctx context.Context, i *entity.Issue, c *entity.Comment, author *entity.User, watchers ...*entity.User) {
	if !n.enabled() || author == nil {
		return
	}
	sent := map[string]bool{author.ID: true}
	for _, w := range watchers {
		if w == nil || sent[w.ID] {
			continue
		}
		sent[w.ID] = true
		n.publish(ctx, mailer.EmailJob{
			To:       w.Email,
			Template: mailtpl.CommentAdded,
			Data: mailtpl.NewCommentAddedData(n.Config, w.FirstName, w.Email,
				mailtpl.WithActor(author.FullName()),
				mailtpl.WithIssue(i.ID, i.Title, string(i.Priority)),
				mailtpl.WithComment(c.Content)),
		})
	}
}
