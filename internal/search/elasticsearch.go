package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"homerent/internal/config"
	"homerent/internal/models"
)

// ElasticsearchClient индексирует объекты размещения и ищет по ним
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// accommodationDocument - то, что лежит в индексе; источник истины остаётся в Postgres
type accommodationDocument struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Size         string    `json:"size"`
	Street       string    `json:"street"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Amenities    []string  `json:"amenities"`
	DailyRate    float64   `json:"daily_rate"`
	Availability int       `json:"availability"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newDocument(a *models.Accommodation) accommodationDocument {
	rate, _ := a.DailyRate.Float64()
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return accommodationDocument{
		ID:           a.ID,
		Type:         string(a.Type),
		Size:         a.Size,
		Street:       a.Address.Street,
		City:         a.Address.City,
		Country:      a.Address.Country,
		Amenities:    a.Amenities,
		DailyRate:    rate,
		Availability: a.Availability,
		UpdatedAt:    updated,
	}
}

// NewElasticsearchClient создает клиент и индекс, если его ещё нет
func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
		Transport:     &http.Transport{ResponseHeaderTimeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

var indexMapping = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":   map[string]interface{}{"type": "long"},
			"type": map[string]interface{}{"type": "keyword"},
			"size": map[string]interface{}{"type": "text"},
			"street": map[string]interface{}{
				"type": "text",
			},
			"city": map[string]interface{}{
				"type":   "text",
				"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}},
			},
			"country": map[string]interface{}{
				"type":   "text",
				"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}},
			},
			"amenities":    map[string]interface{}{"type": "text"},
			"daily_rate":   map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
			"availability": map[string]interface{}{"type": "integer"},
			"updated_at":   map[string]interface{}{"type": "date"},
		},
	},
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mappingJSON, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}

	createRes, err := createReq.Do(ctx, c.client)
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

// Index кладёт (или перезаписывает) документ объекта размещения
func (c *ElasticsearchClient) Index(ctx context.Context, a *models.Accommodation) error {
	body, err := json.Marshal(newDocument(a))
	if err != nil {
		return fmt.Errorf("failed to marshal accommodation: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(a.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index accommodation: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

func (c *ElasticsearchClient) Delete(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete accommodation: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// Search возвращает id подходящих объектов в порядке релевантности
func (c *ElasticsearchClient) Search(ctx context.Context, q models.AccommodationSearchQuery, page models.Page) ([]int64, error) {
	body, err := json.Marshal(buildSearchRequest(q, page))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return ids, nil
}

func buildSearchRequest(q models.AccommodationSearchQuery, page models.Page) map[string]interface{} {
	size := page.Size
	if size <= 0 {
		size = 10
	}

	return map[string]interface{}{
		"query":   buildSearchQuery(q),
		"sort":    buildSortQuery(q.Text),
		"from":    page.Number * size,
		"size":    size,
		"_source": []string{"id"},
	}
}

func buildSearchQuery(q models.AccommodationSearchQuery) map[string]interface{} {
	must := []map[string]interface{}{}
	filter := []map[string]interface{}{}

	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q.Text,
				"fields":    []string{"city^3", "country^2", "street", "size", "amenities"},
				"fuzziness": "AUTO",
			},
		})
	}
	if q.City != "" {
		filter = append(filter, map[string]interface{}{
			"match": map[string]interface{}{"city": map[string]interface{}{"query": q.City, "operator": "and"}},
		})
	}
	if q.Country != "" {
		filter = append(filter, map[string]interface{}{
			"match": map[string]interface{}{"country": map[string]interface{}{"query": q.Country, "operator": "and"}},
		})
	}
	if q.Type != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"type": strings.ToUpper(q.Type)},
		})
	}
	if q.Amenity != "" {
		filter = append(filter, map[string]interface{}{
			"match": map[string]interface{}{"amenities": q.Amenity},
		})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{"bool": boolQuery}
}

func buildSortQuery(text string) []map[string]interface{} {
	if text != "" {
		return []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"id": map[string]interface{}{"order": "asc"}},
		}
	}
	return []map[string]interface{}{
		{"id": map[string]interface{}{"order": "asc"}},
	}
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}
