package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, limit int
		total       int64
		want        Pagination
	}{
		{2, 2, 5, Pagination{Page: 2, Limit: 2, Total: 5, Pages: 3, HasNext: true, HasPrev: true}},
		{3, 2, 5, Pagination{Page: 3, Limit: 2, Total: 5, Pages: 3, HasNext: false, HasPrev: true}},
		{1, 10, 0, Pagination{Page: 1, Limit: 10, Total: 0, Pages: 0}},
		{1, 10, 10, Pagination{Page: 1, Limit: 10, Total: 10, Pages: 1}},
	}
	for _, tc := range cases {
		if got := *NewPagination(tc.page, tc.limit, tc.total); got != tc.want {
			t.Errorf("page=%d limit=%d total=%d: got %+v want %+v", tc.page, tc.limit, tc.total, got, tc.want)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")

	Abort(c, http.StatusForbidden, "nope", nil)

	if w.Code != http.StatusForbidden || !c.IsAborted() {
		t.Fatalf("expected aborted 403, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false || body["requestId"] != "req-1" {
		t.Fatalf("unexpected envelope %v", body)
	}
	errBody := body["error"].(map[string]any)
	if errBody["message"] != "nope" || errBody["statusCode"] != float64(403) {
		t.Fatalf("unexpected error body %v", errBody)
	}
	if _, ok := body["data"]; ok {
		t.Fatal("error envelope must not carry data")
	}
}
