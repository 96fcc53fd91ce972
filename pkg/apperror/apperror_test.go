package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusCodes(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindFileUpload:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindDatabase:       http.StatusInternalServerError,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.StatusCode(); got != want {
			t.Errorf("%s: expected %d got %d", kind, want, got)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("issue not found")
	wrapped := fmt.Errorf("get issue: %w", base)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, NotFound("other message")) {
		t.Fatal("errors.Is should match on kind")
	}
	if errors.Is(wrapped, Conflict("x")) {
		t.Fatal("errors.Is must not match a different kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("unclassified errors are internal")
	}
}

func TestDatabaseKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Database(cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause must stay reachable through Unwrap")
	}
	if err.Message != "database error" {
		t.Fatalf("unexpected message %q", err.Message)
	}
}
