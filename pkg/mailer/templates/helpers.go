package templates

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oksasatya/issue-tracker-api/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithActor(name string) Option { return func(d *EmailData) { d.ActorName = name } }

// WithIssue fills the issue fields and the deep link into the web app.
func WithIssue(id, title, priority string) Option {
	return func(d *EmailData) {
		d.IssueID = id
		d.IssueTitle = title
		d.IssuePriority = priority
		if d.AppURL != "" {
			d.IssueURL = strings.TrimRight(d.AppURL, "/") + "/issues/" + id
		}
	}
}

// WithComment stores an excerpt of at most 280 characters.
func WithComment(content string) Option {
	return func(d *EmailData) { d.Comment = excerpt(content, 280) }
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "…"
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          recipient,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		AppURL:     cfg.AppURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, opts...))
}

func NewIssueAssignedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, IssueAssigned, name, email, opts...))
}

func NewCommentAddedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, CommentAdded, name, email, opts...))
}
