package mailer

import (
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/issue-tracker-api/pkg/mailer/templates"
)

// EmailJob is the JSON message queued for the email worker. It carries
// either a Template with its Data or a ready Subject/Text/HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template,omitempty"` // welcome, issue_assigned, comment_added
	Data     map[string]any `json:"data,omitempty"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
}

var (
	ErrNoRecipient = errors.New("email job has no recipient")
	ErrNoContent   = errors.New("email job has neither a template nor a body")
)

// Validate rejects jobs the worker could never deliver.
func (j *EmailJob) Validate() error {
	if j.To == "" {
		return ErrNoRecipient
	}
	if j.Template == "" && j.Text == "" && j.HTML == "" {
		return ErrNoContent
	}
	return nil
}

// FillRecipient defaults the template's Email and RecipientEmail to To.
func (j *EmailJob) FillRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := j.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			j.Data[k] = j.To
		}
	}
}

// FallbackSubject is used when rendering left the subject empty.
func (j *EmailJob) FallbackSubject() string {
	switch strings.ToLower(j.Template) {
	case mailtpl.Welcome:
		return "Welcome aboard"
	case mailtpl.IssueAssigned:
		return "An issue was assigned to you"
	case mailtpl.CommentAdded:
		return "New comment on your issue"
	default:
		return "Notification"
	}
}
