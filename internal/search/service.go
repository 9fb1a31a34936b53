// Package search runs the product gallery queries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"storefront/internal/common/logger"
	"storefront/internal/common/metrics"
	"storefront/internal/models"
)

const (
	BackendName      = "search"
	defaultFacetSize = 50
	maxPerPage       = 100
)

var (
	ErrSearchFailed     = errors.New("SEARCH_QUERY_FAILED")
	ErrMalformedResults = errors.New("MALFORMED_SEARCH_RESPONSE")
)

type Config struct {
	Index   string
	PerPage int
	// Facets are field names, optionally suffixed with ":size".
	Facets  []string
	Timeout time.Duration
}

type Query struct {
	Text    string
	Page    int
	PerPage int
}

type Service struct {
	client *elasticsearch.Client
	config Config
	logger logger.Logger
}

func NewService(client *elasticsearch.Client, config Config, log logger.Logger) *Service {
	if config.PerPage <= 0 {
		config.PerPage = 12
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Service{
		client: client,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

func (s *Service) PerPage() int { return s.config.PerPage }

type facet struct {
	field string
	size  int
}

func parseFacets(specs []string) []facet {
	var out []facet
	for _, spec := range specs {
		field, sizeStr, found := strings.Cut(strings.TrimSpace(spec), ":")
		if field == "" {
			continue
		}
		size := defaultFacetSize
		if found {
			if n, err := strconv.Atoi(sizeStr); err == nil && n > 0 {
				size = n
			}
		}
		out = append(out, facet{field: field, size: size})
	}
	return out
}

// normalize fills page defaults and clamps the page size.
func (s *Service) normalize(q Query) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = s.config.PerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	q.Text = strings.TrimSpace(q.Text)
	return q
}

func (s *Service) buildQuery(q Query) map[string]interface{} {
	var query map[string]interface{}
	if q.Text == "" {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"product_name_s"},
				"type":   "best_fields",
			},
		}
	}

	aggs := map[string]interface{}{}
	for _, f := range parseFacets(s.config.Facets) {
		aggs[f.field] = map[string]interface{}{
			"terms": map[string]interface{}{"field": f.field, "size": f.size},
		}
	}

	body := map[string]interface{}{
		"query":            query,
		"from":             (q.Page - 1) * q.PerPage,
		"size":             q.PerPage,
		"sort":             []interface{}{"_score"},
		"track_total_hits": true,
	}
	if len(aggs) > 0 {
		body["aggs"] = aggs
	}
	return body
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string           `json:"_id"`
			Score  float64          `json:"_score"`
			Source models.SearchHit `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      interface{} `json:"key"`
			DocCount int64       `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func (s *Service) Search(ctx context.Context, q Query) (*models.SearchResult, error) {
	q = s.normalize(q)

	body, err := json.Marshal(s.buildQuery(q))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(BackendName).Observe(time.Since(start).Seconds())
	}()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.config.Index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeNetwork).Inc()
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeStatus).Inc()
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeMalformed).Inc()
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}

	result := &models.SearchResult{
		Hits:  make([]models.SearchHit, 0, len(r.Hits.Hits)),
		Total: r.Hits.Total.Value,
		Took:  r.Took,
	}
	for _, h := range r.Hits.Hits {
		hit := h.Source
		hit.DocID = h.ID
		hit.Score = h.Score
		if hit.ProductID == "" {
			hit.ProductID = h.ID
		}
		hit.ImageURL = NormalizeImageURL(hit.PrimaryImage())
		result.Hits = append(result.Hits, hit)
	}
	if len(r.Aggregations) > 0 {
		result.Facets = make(map[string][]models.FacetBucket, len(r.Aggregations))
		for name, agg := range r.Aggregations {
			for _, b := range agg.Buckets {
				result.Facets[name] = append(result.Facets[name], models.FacetBucket{
					Value: fmt.Sprint(b.Key),
					Count: b.DocCount,
				})
			}
		}
	}

	outcome := metrics.OutcomeSuccess
	if len(result.Hits) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.BackendRequests.WithLabelValues(BackendName, outcome).Inc()

	s.logger.Debug("gallery search", map[string]interface{}{
		"query": q.Text,
		"page":  q.Page,
		"total": result.Total,
		"took":  r.Took,
	})
	return result, nil
}

// NormalizeImageURL upgrades protocol-relative image URLs to https.
func NormalizeImageURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
