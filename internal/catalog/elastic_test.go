package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const msearchResponse = `{
	"took": 3,
	"responses": [
		{
			"hits": {"total": {"value": 6}, "hits": []},
			"aggregations": {"by_type": {"buckets": [
				{"key": "Color", "doc_count": 2, "options": {"hits": {"hits": [
					{"_source": {"option_id_s": "c1", "option_type_name_s": "Color", "option_value_s": "Red", "sort_priority_i": 1, "sort_priority_type_i": 1, "type_id_s": "t1"}},
					{"_source": {"option_id_s": "c2", "option_type_name_s": "Color", "option_value_s": "Blue", "sort_priority_i": 2, "sort_priority_type_i": 1, "type_id_s": "t1"}}
				]}}},
				{"key": "Size", "doc_count": 2, "options": {"hits": {"hits": [
					{"_source": {"option_id_s": "s1", "option_type_name_s": "Size", "option_value_s": "King", "sort_priority_i": 1, "sort_priority_type_i": 2, "type_id_s": "t2"}},
					{"_source": {"option_id_s": "s2", "option_type_name_s": "Size", "option_value_s": "Queen", "sort_priority_i": 2, "sort_priority_type_i": 2, "type_id_s": "t2"}}
				]}}}
			]}}
		},
		{
			"hits": {"total": {"value": 1}, "hits": [{"_source": {"id": "sku-red-king"}}]},
			"aggregations": {"available_options": {"buckets": [{"key": "c1", "doc_count": 1}, {"key": "s1", "doc_count": 1}]}}
		},
		{
			"hits": {"total": {"value": 1}, "hits": [{"_source": {"product_name_s": "Cloud Sofa", "product_image_s": "prod34521304_E1"}}]}
		}
	]
}`

func newElasticServer(t *testing.T, body string, lines *[]map[string]interface{}) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lines != nil {
			scanner := bufio.NewScanner(r.Body)
			for scanner.Scan() {
				var line map[string]interface{}
				assert.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
				*lines = append(*lines, line)
			}
		} else {
			_, _ = io.Copy(io.Discard, r.Body)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticSource_Fetch(t *testing.T) {
	var lines []map[string]interface{}
	client := newElasticServer(t, msearchResponse, &lines)

	src := NewElasticSource(client, ElasticConfig{
		OptionsIndex: "product_options",
		SKUIndex:     "skus",
		ProductIndex: "products",
	})

	body, err := src.Fetch(context.Background(), "prod34521304", "c1")
	require.NoError(t, err)

	require.Len(t, lines, 6)
	assert.Equal(t, map[string]interface{}{"index": "product_options"}, lines[0])
	assert.Equal(t, map[string]interface{}{"index": "skus"}, lines[2])
	assert.Equal(t, map[string]interface{}{"index": "products"}, lines[4])
	assert.EqualValues(t, 4, lines[3]["size"])

	result, err := Decode(body, 3)
	require.NoError(t, err)

	var ids []string
	for _, o := range result.Options {
		ids = append(ids, o.OptionID)
	}
	// Blue stays available because Color is already chosen; Queen has no SKU left.
	assert.Equal(t, []string{"c1", "c2", "s1"}, ids)
	assert.Equal(t, "sku-red-king", result.SKU)
	require.NotNil(t, result.Summary)
	assert.Equal(t, "Cloud Sofa", result.Summary.ProductName)
}

func TestElasticSource_Fetch_NoSelectionMarksAllAvailable(t *testing.T) {
	client := newElasticServer(t, msearchResponse, nil)
	src := NewElasticSource(client, ElasticConfig{OptionsIndex: "o", SKUIndex: "s", ProductIndex: "p"})

	body, err := src.Fetch(context.Background(), "prod34521304", "")
	require.NoError(t, err)

	result, err := Decode(body, 3)
	require.NoError(t, err)
	assert.Len(t, result.Options, 4)
}

func TestElasticSource_Fetch_SearchError(t *testing.T) {
	client := newElasticServer(t, `{"responses": [
		{"error": {"type": "index_not_found_exception", "reason": "no such index [o]"}, "status": 404},
		{"hits": {"hits": []}},
		{"hits": {"hits": []}}
	]}`, nil)
	src := NewElasticSource(client, ElasticConfig{OptionsIndex: "o", SKUIndex: "s", ProductIndex: "p"})

	_, err := src.Fetch(context.Background(), "prod1", "")
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestElasticSource_Fetch_WrongResponseCount(t *testing.T) {
	client := newElasticServer(t, `{"responses": []}`, nil)
	src := NewElasticSource(client, ElasticConfig{OptionsIndex: "o", SKUIndex: "s", ProductIndex: "p"})

	_, err := src.Fetch(context.Background(), "prod1", "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSplitIDs(t *testing.T) {
	assert.Nil(t, splitIDs(""))
	assert.Equal(t, []string{"a", "b"}, splitIDs("a, ,b,"))
}
