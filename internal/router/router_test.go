package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/config"
	"github.com/oksasatya/issue-tracker-api/internal/container"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
	"github.com/oksasatya/issue-tracker-api/pkg/response"
	"github.com/oksasatya/issue-tracker-api/pkg/validation"
)

type envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Data       json.RawMessage      `json:"data"`
	Pagination *response.Pagination `json:"pagination"`
	Error      *response.ErrorBody  `json:"error"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cfg := &config.Config{
		AppName:            "issue-tracker-test",
		Env:                "test",
		MaxFileSize:        1024,
		MaxFilesPerRequest: 3,
		AllowedMimeTypes:   "text/plain,image/png",
		AuthRateLimit:      100,
		AuthRateWindow:     time.Minute,
		RefreshRateLimit:   100,
		RefreshRateWindow:  time.Minute,
		APIRateLimit:       1000,
		APIRateWindow:      time.Minute,
	}
	blobs, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := &container.Container{
		Config: cfg,
		Logger: helpers.NewNopLogger(),
		JWT:    helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
		Blobs:  blobs,
	}
	c.UseMemory()

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.RealIP())
	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return &server{t: t, engine: engine}
}

func (s *server) do(method, path, token string, body io.Reader, contentType string) (int, envelope, *httptest.ResponseRecorder) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode: %v: %s", method, path, err, w.Body.String())
		}
	}
	return w.Code, env, w
}

func (s *server) json(method, path, token string, payload any) (int, envelope) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			s.t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	code, env, _ := s.do(method, path, token, body, "application/json")
	return code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	// empty collections are omitted from the envelope
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data: %v: %s", err, raw)
	}
	return v
}

type account struct {
	ID    string
	Token string
}

func (s *server) register(email string) account {
	s.t.Helper()
	code, env := s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "firstName": "Test", "lastName": "User",
	})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", email, code, env.Message)
	}
	data := decode[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Tokens helpers.TokenPair `json:"tokens"`
	}](s.t, env.Data)
	return account{ID: data.User.ID, Token: data.Tokens.AccessToken}
}

func (s *server) createIssue(owner account, title string) string {
	s.t.Helper()
	code, env := s.json(http.MethodPost, "/api/issues", owner.Token, map[string]string{
		"title": title, "description": "steps to reproduce",
	})
	if code != http.StatusCreated {
		s.t.Fatalf("create issue: %d %s", code, env.Message)
	}
	return decode[struct {
		Issue struct {
			ID string `json:"id"`
		} `json:"issue"`
	}](s.t, env.Data).Issue.ID
}

type part struct {
	name, contentType string
	body              []byte
}

func (s *server) upload(owner account, issueID string, parts ...part) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, p.name))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			s.t.Fatal(err)
		}
		_, _ = w.Write(p.body)
	}
	_ = mw.Close()
	code, env, _ := s.do(http.MethodPost, "/api/files/issue/"+issueID+"/upload", owner.Token, &buf, mw.FormDataContentType())
	return code, env
}

func TestRegisterHidesPassword(t *testing.T) {
	s := newServer(t)
	code, _, w := s.do(http.MethodPost, "/api/auth/register", "",
		strings.NewReader(`{"email":"Alice@Example.com","password":"secret123","firstName":"Alice","lastName":"Smith"}`),
		"application/json")
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(strings.ToLower(body), "password") {
		t.Fatalf("response leaks password: %s", body)
	}
	if !strings.Contains(body, "alice@example.com") {
		t.Fatalf("email should be normalized: %s", body)
	}

	code, env := s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "secret123", "firstName": "A", "lastName": "B",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d %s", code, env.Message)
	}
}

func TestLoginAndProfile(t *testing.T) {
	s := newServer(t)
	s.register("bob@example.com")

	code, env := s.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bob@example.com", "password": "wrong-pass"})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", code)
	}

	code, env = s.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "BOB@example.com", "password": "secret123"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, env.Message)
	}
	tokens := decode[struct {
		Tokens helpers.TokenPair `json:"tokens"`
	}](t, env.Data).Tokens

	if code, _ = s.json(http.MethodGet, "/api/auth/profile", tokens.AccessToken, nil); code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", code)
	}
	if code, _ = s.json(http.MethodGet, "/api/auth/profile", tokens.RefreshToken, nil); code != http.StatusUnauthorized {
		t.Fatalf("refresh token used as access: expected 401, got %d", code)
	}
	code, env = s.json(http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": tokens.RefreshToken})
	if code != http.StatusOK {
		t.Fatalf("refresh: %d %s", code, env.Message)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/api/issues", "/api/comments/recent", "/api/files/stats", "/api/auth/profile"} {
		code, env := s.json(http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, code)
		}
		if env.Success || env.Error == nil || env.Error.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: unexpected envelope %+v", path, env)
		}
	}
	if code, _ := s.json(http.MethodGet, "/api/issues", "not-a-jwt", nil); code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", code)
	}
}

func TestCreateAndFetchIssue(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")

	code, env := s.json(http.MethodPost, "/api/issues", alice.Token, map[string]string{
		"title": "  Crash on save ", "description": "boom", "priority": "high", "assignedTo": bob.ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, env.Message)
	}
	issue := decode[struct {
		Issue struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Status     string `json:"status"`
			Priority   string `json:"priority"`
			AssignedTo struct {
				ID string `json:"id"`
			} `json:"assignedTo"`
		} `json:"issue"`
	}](t, env.Data).Issue
	if issue.Title != "Crash on save" || issue.Status != "pending" || issue.Priority != "high" {
		t.Fatalf("unexpected issue %+v", issue)
	}
	if issue.AssignedTo.ID != bob.ID {
		t.Fatalf("assignee not populated: %+v", issue)
	}

	if code, _ = s.json(http.MethodGet, "/api/issues/"+issue.ID, bob.Token, nil); code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", code)
	}
	if code, _ = s.json(http.MethodGet, "/api/issues/not-a-uuid", bob.Token, nil); code != http.StatusBadRequest {
		t.Fatalf("malformed id: expected 400, got %d", code)
	}
	if code, _ = s.json(http.MethodGet, "/api/issues/6f1c2a52-6a2e-4e53-9d36-6a0b8d1f0b11", bob.Token, nil); code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", code)
	}

	code, env = s.json(http.MethodPost, "/api/issues", alice.Token, map[string]string{"title": "x"})
	if code != http.StatusBadRequest {
		t.Fatalf("missing description: expected 400, got %d", code)
	}
	if env.Error == nil || env.Error.Details == nil {
		t.Fatalf("validation failure should carry details: %+v", env)
	}
}

func TestStatusChangeByStrangerIsForbidden(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")
	id := s.createIssue(alice, "Login broken")

	code, env := s.json(http.MethodPatch, "/api/issues/"+id+"/status", bob.Token, map[string]string{"status": "complete"})
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", code, env.Message)
	}
	code, _ = s.json(http.MethodPatch, "/api/issues/"+id+"/status", alice.Token, map[string]string{"status": "done"})
	if code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", code)
	}
	code, env = s.json(http.MethodPatch, "/api/issues/"+id+"/status", alice.Token, map[string]string{"status": "complete"})
	if code != http.StatusOK {
		t.Fatalf("creator status change: %d %s", code, env.Message)
	}
	if code, _ = s.json(http.MethodDelete, "/api/issues/"+id, bob.Token, nil); code != http.StatusForbidden {
		t.Fatalf("delete by stranger: expected 403, got %d", code)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	id := s.createIssue(alice, "Attach logs")

	code, env := s.upload(alice, id, part{name: "big.txt", contentType: "text/plain", body: bytes.Repeat([]byte("a"), 2048)})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", code, env.Message)
	}

	code, env = s.upload(alice, id, part{name: "run.exe", contentType: "application/x-msdownload", body: []byte("MZ")})
	if code != http.StatusBadRequest {
		t.Fatalf("disallowed type: expected 400, got %d %s", code, env.Message)
	}

	code, env = s.json(http.MethodGet, "/api/files/issue/"+id, alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("list files: %d", code)
	}
	if files := decode[[]json.RawMessage](t, env.Data); len(files) != 0 {
		t.Fatalf("rejected uploads must leave no records, got %d", len(files))
	}
}

func TestUploadDownloadAndValidate(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	id := s.createIssue(alice, "Attach logs")

	code, env := s.upload(alice, id,
		part{name: "a.txt", contentType: "text/plain", body: []byte("first log")},
		part{name: "b.txt", contentType: "text/plain", body: []byte("second log")},
	)
	if code != http.StatusCreated {
		t.Fatalf("upload: %d %s", code, env.Message)
	}
	files := decode[struct {
		Files []struct {
			ID           string `json:"id"`
			OriginalName string `json:"originalName"`
			Size         int64  `json:"size"`
		} `json:"files"`
	}](t, env.Data).Files
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	code, _, w := s.do(http.MethodGet, "/api/files/"+files[0].ID+"/download", alice.Token, nil, "")
	if code != http.StatusOK {
		t.Fatalf("download: %d", code)
	}
	if w.Body.String() != "first log" {
		t.Fatalf("unexpected content %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="a.txt"`) {
		t.Fatalf("unexpected disposition %q", cd)
	}

	code, env = s.json(http.MethodGet, "/api/files/"+id+"/validate", alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("validate: %d %s", code, env.Message)
	}
	report := decode[struct {
		TotalFiles    int `json:"totalFiles"`
		ExistingFiles int `json:"existingFiles"`
		MissingFiles  int `json:"missingFiles"`
	}](t, env.Data)
	if report.TotalFiles != 2 || report.ExistingFiles != 2 || report.MissingFiles != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	code, env = s.json(http.MethodGet, "/api/files/stats", alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("stats: %d %s", code, env.Message)
	}
}

func TestDeleteIssueCascades(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")
	id := s.createIssue(alice, "Cascade me")

	code, env := s.json(http.MethodPost, "/api/comments/issue/"+id, bob.Token, map[string]string{"content": "me too"})
	if code != http.StatusCreated {
		t.Fatalf("comment: %d %s", code, env.Message)
	}
	commentID := decode[struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}](t, env.Data).Comment.ID

	code, env = s.upload(alice, id, part{name: "trace.txt", contentType: "text/plain", body: []byte("stack")})
	if code != http.StatusCreated {
		t.Fatalf("upload: %d %s", code, env.Message)
	}
	fileID := decode[struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}](t, env.Data).Files[0].ID

	code, env = s.json(http.MethodDelete, "/api/issues/"+id, alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete: %d %s", code, env.Message)
	}
	report := decode[struct {
		Cascade struct {
			CommentsDeleted int `json:"commentsDeleted"`
			FilesDeleted    int `json:"filesDeleted"`
			BlobsDeleted    int `json:"blobsDeleted"`
		} `json:"cascade"`
	}](t, env.Data).Cascade
	if report.CommentsDeleted != 1 || report.FilesDeleted != 1 || report.BlobsDeleted != 1 {
		t.Fatalf("unexpected cascade report %+v", report)
	}

	for _, path := range []string{"/api/issues/" + id, "/api/comments/" + commentID, "/api/files/" + fileID} {
		if code, _ := s.json(http.MethodGet, path, alice.Token, nil); code != http.StatusNotFound {
			t.Errorf("%s: expected 404 after cascade, got %d", path, code)
		}
	}
	if code, _ = s.json(http.MethodGet, "/api/comments/issue/"+id, alice.Token, nil); code != http.StatusNotFound {
		t.Fatalf("comments of a deleted issue: expected 404, got %d", code)
	}
}

func TestIssuePagination(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	for i := 1; i <= 5; i++ {
		s.createIssue(alice, fmt.Sprintf("Issue %d", i))
	}

	code, env := s.json(http.MethodGet, "/api/issues?page=2&limit=2", alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d %s", code, env.Message)
	}
	items := decode[[]struct {
		Title string `json:"title"`
	}](t, env.Data)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// newest first: page 2 holds the 3rd and 2nd issues
	if items[0].Title != "Issue 3" || items[1].Title != "Issue 2" {
		t.Fatalf("unexpected page contents %+v", items)
	}
	want := response.Pagination{Page: 2, Limit: 2, Total: 5, Pages: 3, HasNext: true, HasPrev: true}
	if env.Pagination == nil || *env.Pagination != want {
		t.Fatalf("unexpected pagination %+v", env.Pagination)
	}

	if code, _ = s.json(http.MethodGet, "/api/issues?limit=500", alice.Token, nil); code != http.StatusBadRequest {
		t.Fatalf("limit over max: expected 400, got %d", code)
	}
}

func TestSearchFallsBackToStore(t *testing.T) {
	s := newServer(t)
	alice := s.register("alice@example.com")
	s.createIssue(alice, "Payment gateway timeout")
	s.createIssue(alice, "Typo in footer")

	code, env := s.json(http.MethodGet, "/api/issues/search?q=gateway", alice.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("search: %d %s", code, env.Message)
	}
	res := decode[struct {
		Issues []struct {
			Title string `json:"title"`
		} `json:"issues"`
		Total int64 `json:"total"`
	}](t, env.Data)
	if res.Total != 1 || len(res.Issues) != 1 || res.Issues[0].Title != "Payment gateway timeout" {
		t.Fatalf("unexpected search result %+v", res)
	}
	if code, _ = s.json(http.MethodGet, "/api/issues/search", alice.Token, nil); code != http.StatusBadRequest {
		t.Fatalf("missing q: expected 400, got %d", code)
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		code, env := s.json(http.MethodGet, path, "", nil)
		if code != http.StatusOK || !env.Success {
			t.Fatalf("%s: expected healthy, got %d %+v", path, code, env)
		}
	}
}
