package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*entity.User, error) {
	if token != "good" {
		return nil, apperror.Authentication("Invalid or expired token")
	}
	return &entity.User{ID: "u1", Email: "a@x.com", FirstName: "A"}, nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthBearer(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", Auth(stubAuth{}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserID)+"|"+c.GetString(CtxUserEmail))
	})

	cases := map[string]int{"": 401, "Bearer bad": 401, "Basic good": 401, "Bearer good": 200, "bearer  good": 200}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := serve(r, req)
		if w.Code != want {
			t.Errorf("%q: expected %d got %d", header, want, w.Code)
			continue
		}
		if want == 200 && w.Body.String() != "u1|a@x.com" {
			t.Errorf("%q: unexpected body %q", header, w.Body.String())
		}
		if want == 401 {
			var body struct {
				Success   bool   `json:"success"`
				RequestID string `json:"requestId"`
				Error     struct {
					StatusCode int `json:"statusCode"`
				} `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Success || body.Error.StatusCode != 401 || body.RequestID != w.Header().Get(HeaderRequestID) {
				t.Errorf("%q: unexpected envelope %s", header, w.Body.String())
			}
		}
	}
}

func TestRequestIDKeepsValidInbound(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	in := "5f0c7d3e-8a6b-4c1d-9e2f-0a1b2c3d4e5f"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, in)
	if w := serve(r, req); w.Body.String() != in || w.Header().Get(HeaderRequestID) != in {
		t.Fatalf("inbound id not kept: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	if w := serve(r, req); w.Body.String() == "<script>" || w.Body.Len() != 36 {
		t.Fatalf("invalid inbound id must be replaced: %q", w.Body.String())
	}
}

func TestRealIPPrefersForwardedHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIP)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := serve(r, req).Body.String(); got != "203.0.113.7" {
		t.Fatalf("expected left-most forwarded ip, got %q", got)
	}
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	if got := serve(r, req).Body.String(); got != "198.51.100.2" {
		t.Fatalf("expected cloudflare ip, got %q", got)
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, ttl, _ := l.Hit(ctx, "k", time.Minute)
		if n != i || ttl != time.Minute {
			t.Fatalf("hit %d: count %d ttl %v", i, n, ttl)
		}
	}
	now = now.Add(time.Minute)
	if n, _, _ := l.Hit(ctx, "k", time.Minute); n != 1 {
		t.Fatalf("window should reset, got %d", n)
	}
	if n, _, _ := l.Hit(ctx, "other", time.Minute); n != 1 {
		t.Fatalf("keys must be independent, got %d", n)
	}
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	l := NewMemoryLimiter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _, _ = l.Hit(context.Background(), "k", time.Hour)
			}
		}()
	}
	wg.Wait()
	if n, _, _ := l.Hit(context.Background(), "k", time.Hour); n != 1001 {
		t.Fatalf("expected 1001 hits, got %d", n)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(NewMemoryLimiter(), 2, time.Minute, KeyByIP("auth"), nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
		req.RemoteAddr = "203.0.113.9:1234"
		last = serve(r, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Limit") != "2" || last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers %v", last.Header())
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After")
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	if w := serve(r, req); w.Code != http.StatusNoContent {
		t.Fatalf("another client must not be limited, got %d", w.Code)
	}
}

func TestRecoveryHidesPanicInProduction(t *testing.T) {
	for _, dev := range []bool{false, true} {
		r := gin.New()
		r.Use(Recovery(helpers.NewNopLogger(), dev))
		r.GET("/boom", func(*gin.Context) { panic("kaboom") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("dev=%v: expected 500, got %d", dev, w.Code)
		}
		leaked := strings.Contains(w.Body.String(), "kaboom")
		if leaked != dev {
			t.Fatalf("dev=%v: panic detail exposure mismatch: %s", dev, w.Body.String())
		}
	}
}
