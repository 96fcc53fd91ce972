package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

func fakeES(t *testing.T, h http.HandlerFunc) *IssueIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatal(err)
	}
	return NewIssueIndex(es, "issues")
}

func TestSearchReturnsHitIDs(t *testing.T) {
	var gotQuery map[string]any
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/issues/_search") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotQuery)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":2},"hits":[{"_id":"b"},{"_id":"a"}]}}`)
	})

	ids, total, err := idx.Search(context.Background(), "login bug", 5)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(ids) != 2 || ids[0] != "b" {
		t.Fatalf("unexpected result %v %d", ids, total)
	}
	if _, ok := gotQuery["query"]; !ok {
		t.Fatalf("query body missing: %v", gotQuery)
	}
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	})
	if err := idx.DeleteIssue(context.Background(), "x"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestSearchSurfacesErrors(t *testing.T) {
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad query"}`)
	})
	if _, _, err := idx.Search(context.Background(), "x", 5); err == nil {
		t.Fatal("expected an error")
	}
}
