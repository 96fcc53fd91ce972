package mailer

import "testing"

func TestEmailJobValidate(t *testing.T) {
	cases := []struct {
		name string
		job  EmailJob
		want error
	}{
		{"template", EmailJob{To: "a@x.com", Template: "welcome"}, nil},
		{"raw body", EmailJob{To: "a@x.com", Text: "hi"}, nil},
		{"no recipient", EmailJob{Template: "welcome"}, ErrNoRecipient},
		{"no content", EmailJob{To: "a@x.com", Subject: "only a subject"}, ErrNoContent},
	}
	for _, tc := range cases {
		if got := tc.job.Validate(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestFillRecipientKeepsExplicitValues(t *testing.T) {
	j := EmailJob{To: "a@x.com", Data: map[string]any{"Email": "b@x.com"}}
	j.FillRecipient()
	if j.Data["Email"] != "b@x.com" || j.Data["RecipientEmail"] != "a@x.com" {
		t.Fatalf("unexpected data %v", j.Data)
	}
	if (&EmailJob{Template: "issue_assigned"}).FallbackSubject() != "An issue was assigned to you" {
		t.Fatal("unexpected fallback subject")
	}
}
