package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/models"
)

const DefaultSize = 50

var ErrSearchDisabled = errors.New("search is not configured")

type Indexer interface {
	IndexDocument(ctx context.Context, d models.DocumentView) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.DocumentView, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ES struct {
	client *elasticsearch.Client
	index  string
}

// New returns an Elasticsearch-backed indexer, or Disabled when no URL is set.
func New(c Config) (Indexer, error) {
	if c.URL == "" {
		return Disabled{}, nil
	}
	return NewES(c)
}

func NewES(c Config) (*ES, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{c.URL},
		Username:  c.User,
		Password:  c.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ES{client: client, index: c.Index}, nil
}

func (s *ES) IndexDocument(ctx context.Context, d models.DocumentView) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(d.ID.String()),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index document", res.StatusCode, res.Body)
	}
	return nil
}

// DeleteDocument treats a missing index entry as already deleted.
func (s *ES) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	res, err := s.client.Delete(s.index, id.String(), s.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete document", res.StatusCode, res.Body)
	}
	return nil
}

func (s *ES) Search(ctx context.Context, query string, from, size int) (int64, []models.DocumentView, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if from < 0 {
		from = 0
	}
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"originalName^2", "ownerName", "ownerEmail", "mimeType"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
		"sort": []any{"_score", map[string]any{"uploadedAt": "desc"}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.DocumentView `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]models.DocumentView, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

func responseError(op string, status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("%s: elasticsearch status %d: %s", op, status, strings.TrimSpace(string(raw)))
}

// Disabled is used when no Elasticsearch URL is configured. Writes are
// dropped; searches fail with ErrSearchDisabled.
type Disabled struct{}

func (Disabled) IndexDocument(context.Context, models.DocumentView) error { return nil }
func (Disabled) DeleteDocument(context.Context, uuid.UUID) error          { return nil }
func (Disabled) Search(context.Context, string, int, int) (int64, []models.DocumentView, error) {
	return 0, nil, ErrSearchDisabled
}
