// Package search keeps an Elasticsearch copy of ingested postings for
// operator lookups.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"lawjobs-workers/internal/models"
)

var (
	ErrIndexFailed  = errors.New("SEARCH_INDEX_FAILED")
	ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "long"},
      "title":             {"type": "text", "analyzer": "russian"},
      "description":       {"type": "text", "analyzer": "russian"},
      "employer_name":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "employer_category": {"type": "keyword"},
      "experience":        {"type": "keyword"},
      "tags":              {"type": "keyword"},
      "salary_from":       {"type": "integer"},
      "salary_to":         {"type": "integer"},
      "from_admin":        {"type": "boolean"},
      "created_at":        {"type": "date"}
    }
  }
}`

type document struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	EmployerName     string   `json:"employer_name"`
	EmployerCategory string   `json:"employer_category"`
	Experience       string   `json:"experience"`
	Tags             []string `json:"tags"`
	SalaryFrom       *int     `json:"salary_from,omitempty"`
	SalaryTo         *int     `json:"salary_to,omitempty"`
	FromAdmin        bool     `json:"from_admin"`
	CreatedAt        string   `json:"created_at"`
}

func toDocument(p *models.Posting) document {
	d := document{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		EmployerName:     p.EmployerName,
		EmployerCategory: string(p.EmployerCategory),
		Experience:       string(p.Experience),
		Tags:             make([]string, 0, len(p.Tags)),
		FromAdmin:        p.FromAdmin,
		CreatedAt:        p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, t := range p.Tags {
		d.Tags = append(d.Tags, string(t))
	}
	if p.Salary != nil {
		d.SalaryFrom = p.Salary.From
		d.SalaryTo = p.Salary.To
	}
	return d
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	if index == "" {
		index = "postings"
	}
	return &Indexer{client: client, index: index}
}

// EnsureIndex creates the postings index with its mapping when missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: check index: %v", ErrIndexFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: create index: %s", ErrIndexFailed, res.Status())
	}
	return nil
}

// IndexPosting upserts the posting document under its id.
func (i *Indexer) IndexPosting(ctx context.Context, p *models.Posting) error {
	body, err := json.Marshal(toDocument(p))
	if err != nil {
		return fmt.Errorf("%w: encode posting: %v", ErrIndexFailed, err)
	}

	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       bytes.NewReader(body),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: index posting %d: %v", ErrIndexFailed, p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: index posting %d: %s", ErrIndexFailed, p.ID, res.Status())
	}
	return nil
}

// Query selects postings by free text and practice areas.
type Query struct {
	Text string
	Tags []models.PracticeArea
	From int
	Size int
}

type Result struct {
	Total int     `json:"total"`
	IDs   []int64 `json:"ids"`
}

func buildSearchBody(q Query) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title^3", "description", "employer_name^2"},
				"type":   "best_fields",
			},
		})
	}
	if len(q.Tags) > 0 {
		tags := make([]string, len(q.Tags))
		for idx, t := range q.Tags {
			tags[idx] = string(t)
		}
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{"tags": tags},
		})
	}
	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort":    []interface{}{map[string]interface{}{"created_at": "desc"}},
		"_source": []string{"id"},
	}
}

func (i *Indexer) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Size <= 0 {
		q.Size = 20
	}
	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
		From:  &q.From,
		Size:  &q.Size,
	}.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	out := &Result{Total: parsed.Hits.Total.Value, IDs: make([]int64, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.IDs = append(out.IDs, h.Source.ID)
	}
	return out, nil
}
