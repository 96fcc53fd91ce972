package application

import (
	"context"
	"strings"
	"testing"

	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

func TestCommentCreateAddsReferenceOnce(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	c, err := f.commentSvc.Create(ctx, a.ID, issue.ID, "  looks good  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Content != "looks good" || c.User == nil || c.User.ID != a.ID {
		t.Fatalf("unexpected comment %+v", c)
	}
	// a repeated add must not duplicate the id
	if err := f.issues.AddComment(ctx, issue.ID, c.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ids := f.reload(t, issue.ID).CommentIDs; len(ids) != 1 || ids[0] != c.ID {
		t.Fatalf("unexpected comment set %v", ids)
	}
}

func TestCommentCreateValidation(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	_, err := f.commentSvc.Create(ctx, a.ID, "00000000-0000-0000-0000-000000000000", "hi")
	wantKind(t, err, apperror.KindNotFound)
	_, err = f.commentSvc.Create(ctx, a.ID, issue.ID, "   ")
	wantKind(t, err, apperror.KindValidation)
	_, err = f.commentSvc.Create(ctx, a.ID, issue.ID, strings.Repeat("x", 1001))
	wantKind(t, err, apperror.KindValidation)
	if n := len(f.reload(t, issue.ID).CommentIDs); n != 0 {
		t.Fatalf("rejected comments must not be referenced, got %d", n)
	}
}

func TestCommentPermissions(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "a@x.com"), f.user(t, "b@x.com"), f.user(t, "c@x.com")
	ctx := context.Background()
	issue := f.issue(t, a, nil)

	byB, err := f.commentSvc.Create(ctx, b.ID, issue.ID, "from b")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.commentSvc.Update(ctx, b.ID, byB.ID, "edited"); err != nil {
		t.Fatalf("author edit: %v", err)
	}
	_, err = f.commentSvc.Update(ctx, c.ID, byB.ID, "hijack")
	wantKind(t, err, apperror.KindAuthorization)
	_, err = f.commentSvc.Update(ctx, a.ID, byB.ID, "creator edit")
	wantKind(t, err, apperror.KindAuthorization)

	wantKind(t, f.commentSvc.Delete(ctx, c.ID, byB.ID), apperror.KindAuthorization)
	if err := f.commentSvc.Delete(ctx, a.ID, byB.ID); err != nil {
		t.Fatalf("issue creator delete: %v", err)
	}
	_, err = f.commentSvc.Get(ctx, byB.ID)
	wantKind(t, err, apperror.KindNotFound)
	if n := len(f.reload(t, issue.ID).CommentIDs); n != 0 {
		t.Fatalf("deleted comment still referenced (%d)", n)
	}
}

func TestCommentListings(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a@x.com"), f.user(t, "b@x.com")
	ctx := context.Background()
	one := f.issue(t, a, nil)
	two := f.issue(t, a, nil)

	for i, target := range []string{one.ID, two.ID, one.ID} {
		author := a
		if i == 1 {
			author = b
		}
		if _, err := f.commentSvc.Create(ctx, author.ID, target, "c"+string(rune('0'+i))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	p, err := f.commentSvc.ListForIssue(ctx, one.ID, ListParams{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if p.Total != 2 || len(p.Items) != 1 || p.Items[0].Content != "c2" {
		t.Fatalf("unexpected page %+v", p)
	}
	_, err = f.commentSvc.ListForIssue(ctx, "00000000-0000-0000-0000-000000000000", ListParams{})
	wantKind(t, err, apperror.KindNotFound)

	mine, err := f.commentSvc.ListMine(ctx, b.ID, ListParams{})
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if mine.Total != 1 || mine.Items[0].Issue == nil || mine.Items[0].Issue.ID != two.ID {
		t.Fatalf("unexpected mine %+v", mine.Items)
	}

	recent, err := f.commentSvc.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "c2" || recent[1].Content != "c1" {
		t.Fatalf("unexpected recent %+v", recent)
	}
}
