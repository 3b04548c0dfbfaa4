package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"yatra/internal/config"
	"yatra/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchClient представляет клиент для работы с индексом поездок
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// NewElasticsearchClient создает новый клиент Elasticsearch и индекс при необходимости
func NewElasticsearchClient(ctx context.Context, cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	return newClient(ctx, cfg, nil)
}

func newClient(ctx context.Context, cfg config.ElasticsearchConfig, transport http.RoundTripper) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
		Transport:     transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	if err := client.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// EnsureIndex создает индекс поездок если он не существует
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	body, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// place_analyzer folds diacritics in transliterated place names
func indexMapping() map[string]any {
	text := map[string]any{"type": "text", "analyzer": "place_analyzer"}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"place_analyzer": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id": map[string]any{"type": "long"},
				"title": map[string]any{
					"type":     "text",
					"analyzer": "place_analyzer",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"origin":           text,
				"destination":      text,
				"description":      text,
				"status":           map[string]any{"type": "keyword"},
				"departure_at":     map[string]any{"type": "date"},
				"return_at":        map[string]any{"type": "date"},
				"price_per_seat":   map[string]any{"type": "long"},
				"advance_per_seat": map[string]any{"type": "long"},
				"total_seats":      map[string]any{"type": "integer"},
				"available_seats":  map[string]any{"type": "integer"},
				"created_at":       map[string]any{"type": "date"},
				"updated_at":       map[string]any{"type": "date"},
			},
		},
	}
}

// TripQuery - параметры поиска поездок в индексе
type TripQuery struct {
	Query    string
	Date     string
	Status   models.TripStatus
	Page     int
	PageSize int
}

// Search выполняет поиск поездок и возвращает страницу и общее число совпадений
func (c *ElasticsearchClient) Search(ctx context.Context, q TripQuery) ([]models.Trip, int64, error) {
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	from := 0
	if q.Page > 0 {
		from = (q.Page - 1) * q.PageSize
	}

	body, err := json.Marshal(map[string]any{
		"query":            buildSearchQuery(q),
		"sort":             buildSortQuery(q.Query),
		"from":             from,
		"size":             q.PageSize,
		"track_total_hits": true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Trip `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	trips := make([]models.Trip, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		trips[i] = hit.Source
	}
	return trips, response.Hits.Total.Value, nil
}

// buildSearchQuery строит поисковый запрос
func buildSearchQuery(q TripQuery) map[string]any {
	var must, filter []map[string]any

	if q.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     q.Query,
				"fields":    []string{"title^2", "destination^2", "origin", "description"},
				"fuzziness": "AUTO",
			},
		})
	}

	if q.Date != "" {
		filter = append(filter, map[string]any{
			"range": map[string]any{
				"departure_at": map[string]any{
					"gte": q.Date + "T00:00:00",
					"lte": q.Date + "T23:59:59",
				},
			},
		})
	}

	if q.Status != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"status": string(q.Status)},
		})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]any{"bool": boolQuery}
}

// buildSortQuery строит сортировку
func buildSortQuery(query string) []map[string]any {
	if query != "" {
		return []map[string]any{
			{"_score": map[string]any{"order": "desc"}},
			{"departure_at": map[string]any{"order": "asc"}},
		}
	}

	return []map[string]any{
		{"departure_at": map[string]any{"order": "asc"}},
		{"id": map[string]any{"order": "asc"}},
	}
}

// IndexTrip индексирует поездку
func (c *ElasticsearchClient) IndexTrip(ctx context.Context, trip *models.Trip) error {
	body, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(trip.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index trip: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

// DeleteTrip удаляет поездку из индекса
func (c *ElasticsearchClient) DeleteTrip(ctx context.Context, id int64) error {
	res, err := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "wait_for",
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	res, err := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}
