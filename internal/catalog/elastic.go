// internal/catalog/elastic.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	commonhttp "storefront/internal/common/http"
	"storefront/internal/common/metrics"
)

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

const maxAvailableOptions = 1000

type ElasticConfig struct {
	OptionsIndex      string
	SKUIndex          string
	ProductIndex      string
	MaxOptionsPerType int
	SKUMatchLimit     int
}

// ElasticSource builds the options envelope straight from Elasticsearch with
// one multi-search: the option aggregation, the SKU candidates for the
// current selection and the product document.
type ElasticSource struct {
	client *elasticsearch.Client
	cfg    ElasticConfig
}

func NewElasticSource(client *elasticsearch.Client, cfg ElasticConfig) *ElasticSource {
	if cfg.MaxOptionsPerType <= 0 {
		cfg.MaxOptionsPerType = 100
	}
	if cfg.SKUMatchLimit <= 0 {
		cfg.SKUMatchLimit = 3
	}
	return &ElasticSource{client: client, cfg: cfg}
}

type skuSearch struct {
	SearchSection[SKUHit]
	Aggregations struct {
		AvailableOptions struct {
			Buckets []struct {
				Key string `json:"key"`
			} `json:"buckets"`
		} `json:"available_options"`
	} `json:"aggregations"`
}

type msearchError struct {
	Error *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (s *ElasticSource) Fetch(ctx context.Context, productID, selectedOptions string) ([]byte, error) {
	selected := splitIDs(selectedOptions)

	body, err := s.buildMultiSearch(productID, selected)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(BackendName).Observe(time.Since(start).Seconds())
	}()

	res, err := s.client.Msearch(bytes.NewReader(body), s.client.Msearch.WithContext(ctx))
	if err != nil {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeNetwork).Inc()
		return nil, &commonhttp.NetworkError{Backend: BackendName, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeStatus).Inc()
		return nil, &commonhttp.StatusError{
			Backend:    BackendName,
			StatusCode: res.StatusCode,
			Reason:     http.StatusText(res.StatusCode),
		}
	}

	var ms struct {
		Responses []json.RawMessage `json:"responses"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ms); err != nil {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeMalformed).Inc()
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(ms.Responses) != 3 {
		metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeMalformed).Inc()
		return nil, fmt.Errorf("%w: expected 3 responses, got %d", ErrMalformedResponse, len(ms.Responses))
	}
	for i, raw := range ms.Responses {
		var e msearchError
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if e.Error != nil {
			metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeStatus).Inc()
			return nil, fmt.Errorf("%w: search %d: %s: %s", ErrSearchFailed, i, e.Error.Type, e.Error.Reason)
		}
	}

	var (
		options  OptionsDetail
		skus     skuSearch
		products SearchSection[ProductHit]
	)
	if err := json.Unmarshal(ms.Responses[0], &options); err != nil {
		return nil, fmt.Errorf("%w: options: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(ms.Responses[1], &skus); err != nil {
		return nil, fmt.Errorf("%w: skus: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(ms.Responses[2], &products); err != nil {
		return nil, fmt.Errorf("%w: product: %v", ErrMalformedResponse, err)
	}

	markAvailability(&options, &skus, selected)

	metrics.BackendRequests.WithLabelValues(BackendName, metrics.OutcomeSuccess).Inc()
	return json.Marshal(Envelope{
		OptionsDetail:   &options,
		SKUResponse:     &skus.SearchSection,
		ProductResponse: &products,
	})
}

// markAvailability sets each option's status. With a selection, an option is
// available when some remaining SKU candidate carries it, or when its type is
// already selected so the shopper can still switch within that type.
func markAvailability(options *OptionsDetail, skus *skuSearch, selected []string) {
	available := make(map[string]bool)
	for _, b := range skus.Aggregations.AvailableOptions.Buckets {
		available[b.Key] = true
	}

	selectedIDs := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedIDs[id] = true
	}
	selectedTypes := make(map[string]bool)
	for _, bucket := range options.Aggregations.ByType.Buckets {
		for _, hit := range bucket.Options.Hits.Hits {
			if selectedIDs[hit.Source.OptionID] {
				selectedTypes[hit.Source.OptionTypeName] = true
			}
		}
	}

	buckets := options.Aggregations.ByType.Buckets
	for i := range buckets {
		hits := buckets[i].Options.Hits.Hits
		for j := range hits {
			opt := hits[j].Source
			if len(selected) == 0 || available[opt.OptionID] || selectedTypes[opt.OptionTypeName] {
				hits[j].Status = "available"
			} else {
				hits[j].Status = StatusUnavailable
			}
		}
	}
}

func (s *ElasticSource) buildMultiSearch(productID string, selected []string) ([]byte, error) {
	optionsQuery := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"product_id_s": productID},
		},
		"aggs": map[string]interface{}{
			"by_type": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "option_type_name_s",
					"size":  50,
					"order": map[string]interface{}{"type_priority": "asc"},
				},
				"aggs": map[string]interface{}{
					"type_priority": map[string]interface{}{
						"min": map[string]interface{}{"field": "sort_priority_type_i"},
					},
					"options": map[string]interface{}{
						"top_hits": map[string]interface{}{
							"size": s.cfg.MaxOptionsPerType,
							"sort": []interface{}{
								map[string]interface{}{"sort_priority_i": map[string]interface{}{"order": "asc"}},
							},
						},
					},
				},
			},
		},
	}

	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"product_id_s": productID}},
	}
	for _, id := range selected {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"option_id_ss": id},
		})
	}
	skuQuery := map[string]interface{}{
		// one more than the limit is enough to tell whether the match is unambiguous
		"size":    s.cfg.SKUMatchLimit + 1,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"aggs": map[string]interface{}{
			"available_options": map[string]interface{}{
				"terms": map[string]interface{}{"field": "option_id_ss", "size": maxAvailableOptions},
			},
		},
	}

	productQuery := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"ids": map[string]interface{}{"values": []string{productID}},
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, part := range []struct {
		index string
		body  map[string]interface{}
	}{
		{s.cfg.OptionsIndex, optionsQuery},
		{s.cfg.SKUIndex, skuQuery},
		{s.cfg.ProductIndex, productQuery},
	} {
		if err := enc.Encode(map[string]string{"index": part.index}); err != nil {
			return nil, err
		}
		if err := enc.Encode(part.body); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func splitIDs(joined string) []string {
	if joined == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
