// Package search mirrors issues into Elasticsearch for relevance-ranked
// full-text lookups. Postgres stays the source of truth.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "status":      {"type": "keyword"},
      "priority":    {"type": "keyword"},
      "assignedTo":  {"type": "keyword"},
      "createdBy":   {"type": "keyword"},
      "createdAt":   {"type": "date"}
    }
  }
}`

type issueDoc struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IssueIndex writes and queries the issues index.
type IssueIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewIssueIndex(es *elasticsearch.Client, index string) *IssueIndex {
	return &IssueIndex{es: es, index: index}
}

// EnsureIndex creates the index with its mapping when missing.
func (x *IssueIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		x.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return err
	}
	return checkResponse(res, "create index")
}

func (x *IssueIndex) IndexIssue(ctx context.Context, i *entity.Issue) error {
	body, err := json.Marshal(issueDoc{
		Title:       i.Title,
		Description: i.Description,
		Status:      string(i.Status),
		Priority:    string(i.Priority),
		AssignedTo:  i.AssignedTo,
		CreatedBy:   i.CreatedBy,
		CreatedAt:   i.CreatedAt,
	})
	if err != nil {
		return err
	}
	res, err := x.es.Index(x.index, bytes.NewReader(body),
		x.es.Index.WithDocumentID(i.ID),
		x.es.Index.WithContext(ctx))
	if err != nil {
		return err
	}
	return checkResponse(res, "index issue")
}

func (x *IssueIndex) DeleteIssue(ctx context.Context, id string) error {
	res, err := x.es.Delete(x.index, id, x.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusNotFound {
		_ = res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete issue")
}

// Ping checks that the cluster answers.
func (x *IssueIndex) Ping(ctx context.Context) error {
	res, err := x.es.Ping(x.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	return checkResponse(res, "ping")
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of the best matching issues, most relevant first.
func (x *IssueIndex) Search(ctx context.Context, q string, limit int) ([]string, int64, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, err
	}
	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(body)),
		x.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, responseError(res, "search issues")
	}
	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, sr.Hits.Total.Value, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, op)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func responseError(res *esapi.Response, op string) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(b)))
}
