// Package search indexes catalog items in Elasticsearch and queries them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"storefront/internal/models"

	"github.com/elastic/go-elasticsearch/v9"
)

// Config holds the Elasticsearch connection details.
type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// NewClient connects to Elasticsearch and verifies the cluster answers.
func NewClient(cfg Config, log *slog.Logger) (*elasticsearch.Client, error) {
	log.Info("connecting to Elasticsearch", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get Elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error %s: %s", res.Status(), body)
	}

	log.Info("connected to Elasticsearch")
	return client, nil
}

// ElasticItemSearcher runs catalog searches against one index.
type ElasticItemSearcher struct {
	es    *elasticsearch.Client
	index string
}

// NewElasticItemSearcher creates a new ElasticItemSearcher.
func NewElasticItemSearcher(es *elasticsearch.Client, index string) *ElasticItemSearcher {
	return &ElasticItemSearcher{es: es, index: index}
}

// searchBody builds a fuzzy multi_match query weighting titles over descriptions.
func searchBody(query string, from, size int) (*bytes.Buffer, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}
	return &buf, nil
}

func (s *ElasticItemSearcher) Search(ctx context.Context, query string, from, size int) (int64, []models.Item, error) {
	buf, err := searchBody(query, from, size)
	if err != nil {
		return 0, nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []models.Item, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Item `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	items := make([]models.Item, len(out.Hits.Hits))
	for i, hit := range out.Hits.Hits {
		items[i] = hit.Source
	}
	return out.Hits.Total.Value, items, nil
}

// Index stores the item document under its id.
func (s *ElasticItemSearcher) Index(ctx context.Context, item models.Item) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.Slug, err)
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(doc),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(item.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index item %s: %w", item.Slug, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to index item %s: %s", item.Slug, res.Status())
	}
	return nil
}
