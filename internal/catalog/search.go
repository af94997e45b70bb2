package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "products"

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

// SearchIndex keeps a full-text copy of products.
type SearchIndex interface {
	Index(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, f ProductFilter) ([]Product, int, error)
}

// ESIndex implements SearchIndex over one Elasticsearch index.
type ESIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ESIndex{client: client, index: index}
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":           {"type": "keyword"},
			"slug":         {"type": "keyword"},
			"name":         {"type": "text"},
			"categorySlug": {"type": "keyword"},
			"summary":      {"type": "text"},
			"description":  {"type": "text"},
			"features":     {"type": "text"},
			"featured":     {"type": "boolean"},
			"status":       {"type": "keyword"},
			"createdAt":    {"type": "date"},
			"updatedAt":    {"type": "date"}
		}
	}
}`

// EnsureIndex creates the index with its mapping when absent.
func (e *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: check index: %v", ErrSearchFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrSearchFailed, err)
	}
	return checkResponse(res, "create index")
}

func (e *ESIndex) Index(ctx context.Context, p *Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(p.ID),
	)
	if err != nil {
		return fmt.Errorf("%w: index %s: %v", ErrSearchFailed, p.Slug, err)
	}
	return checkResponse(res, "index "+p.Slug)
}

// Delete removes a document. A missing document is not an error.
func (e *ESIndex) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.index, id, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrSearchFailed, id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete "+id)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ESIndex) Search(ctx context.Context, f ProductFilter) ([]Product, int, error) {
	body, err := json.Marshal(buildSearchQuery(f))
	if err != nil {
		return nil, 0, err
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithFrom(f.offset()),
		e.client.Search.WithSize(f.PageSize),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, 0, fmt.Errorf("%w: %s: %s", ErrSearchFailed, res.Status(), msg)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	out := make([]Product, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, sr.Hits.Total.Value, nil
}

func buildSearchQuery(f ProductFilter) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if f.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  f.Query,
				"fields": []string{"name^3", "summary^2", "description", "features"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if f.Category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"categorySlug": f.Category},
		})
	}
	if !f.IncludeDrafts {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status": string(StatusPublished)},
		})
	}
	if f.Featured != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"featured": *f.Featured},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("%w: %s: %s: %s", ErrSearchFailed, op, res.Status(), msg)
	}
	return nil
}
