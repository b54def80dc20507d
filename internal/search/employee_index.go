package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go-emptrack/internal/events"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"go.uber.org/zap"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "name":            {"type": "text"},
      "email":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "phone":           {"type": "keyword"},
      "designation":     {"type": "text"},
      "gender":          {"type": "keyword"},
      "blood_group":     {"type": "keyword"},
      "date_of_joining": {"type": "keyword"},
      "photo":           {"type": "keyword", "index": false},
      "registered":      {"type": "boolean"}
    }
  }
}`

// EmployeeIndex keeps a searchable copy of the roster. The database stays the
// source of truth; the index only answers "which ids match".
type EmployeeIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

func NewEmployeeIndex(es *elasticsearch.Client, index string, logger ...*zap.Logger) *EmployeeIndex {
	l := zap.L().Named("search.employee_index")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("search.employee_index")
	}
	return &EmployeeIndex{es: es, index: index, logger: l}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (i *EmployeeIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.es.Indices.Create(i.index,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// Another consumer may have won the race.
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index: %s: %s", res.Status(), body)
	}

	i.logger.Info("search index created", zap.String("index", i.index))
	return nil
}

func (i *EmployeeIndex) Upsert(ctx context.Context, snap events.EmployeeSnapshot) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode employee document: %w", err)
	}

	res, err := i.es.Index(i.index, &buf,
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(snap.ID),
	)
	if err != nil {
		return fmt.Errorf("index employee %s: %w", snap.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index employee", res)
	}
	return nil
}

// Delete removes the document; a document that is already gone is not an error.
func (i *EmployeeIndex) Delete(ctx context.Context, id string) error {
	res, err := i.es.Delete(i.index, id, i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete employee %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete employee", res)
	}
	return nil
}

// SearchIDs returns matching employee ids, best match first.
func (i *EmployeeIndex) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	body := map[string]any{
		"_source": false,
		"size":    limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "email", "designation", "phone"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search employees", res)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}
