package templates

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oksasatya/issue-tracker-api/config"
)

func testConfig() *config.Config {
	return &config.Config{AppName: "Tracker", AppURL: "https://tracker.example/", CompanyName: "Acme"}
}

func TestRenderIssueAssigned(t *testing.T) {
	data := NewIssueAssignedData(testConfig(), "Bo", "bo@x.com",
		WithActor("Ann"),
		WithIssue("42", "Login <broken>", "high"),
		WithTime(time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)))

	subject, text, html, err := Render(IssueAssigned, data)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "[HIGH] You were assigned: Login <broken>" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(text, "https://tracker.example/issues/42") {
		t.Fatalf("missing issue link in text: %s", text)
	}
	if !strings.Contains(html, "Login &lt;broken&gt;") {
		t.Fatal("html body must escape the title")
	}
}

func TestRenderCommentAddedExcerpt(t *testing.T) {
	long := strings.Repeat("a", 400)
	data := NewCommentAddedData(testConfig(), "Bo", "bo@x.com", WithIssue("1", "T", "low"), WithComment(long))
	_, text, _, err := Render(CommentAdded, data)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, long) || !strings.Contains(text, "…") {
		t.Fatal("comment should be truncated to an excerpt")
	}
}

func TestRenderWelcomeDefaults(t *testing.T) {
	subject, text, _, err := Render(Welcome, NewWelcomeData(&config.Config{}, "", "a@x.com"))
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Welcome to Issue Tracker" || !strings.Contains(text, "Hi there") {
		t.Fatalf("defaults not applied: %q / %q", subject, text)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, _, err := Render("password_reset", map[string]any{}); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}
