package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "storefront/internal/common/http"
	"storefront/internal/common/logger"
	"storefront/internal/selection"
)

func newTestFetcher(t *testing.T, endpoint string) *Fetcher {
	client := commonhttp.NewClient(2*time.Second, "Storefront-Test/1.0")
	return NewFetcher(NewHTTPSource(client, endpoint), Config{SKUMatchLimit: 3}, logger.NewTestLogger(t), nil)
}

func TestFetcher_Fetch_Success(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buildEnvelope([][]testOption{
			{{"c1", "Color", "Red", "available"}, {"c2", "Color", "Blue", "unavailable"}},
			{{"s1", "Size", "King", "available"}},
		}, []string{"sku-1", "sku-2"}))
	}))
	defer srv.Close()

	sel := selection.New()
	sel.Select("Color", "c1")
	sel.Select("Size", "s1")

	f := newTestFetcher(t, srv.URL+"/ng-all-options")
	result, err := f.Fetch(context.Background(), "prod34521304", sel)
	require.NoError(t, err)

	assert.Equal(t, "productId=prod34521304&selectedOptions=c1%2Cs1", gotQuery)
	assert.Equal(t, "Storefront-Test/1.0", gotUA)
	assert.Len(t, result.Options, 2)
	assert.Equal(t, "sku-1", result.SKU)
}

func TestFetcher_Fetch_EmptySelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.URL.Query().Get("selectedOptions"))
		_, _ = w.Write(buildEnvelope([][]testOption{
			{{"c1", "Color", "Red", "available"}},
		}, []string{"a", "b", "c", "d"}))
	}))
	defer srv.Close()

	result, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), "prod34521304", selection.New())
	require.NoError(t, err)
	assert.Len(t, result.Options, 1)
	assert.False(t, result.HasSKU())
}

func TestFetcher_Fetch_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), "p1", nil)
		var statusErr *commonhttp.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
		assert.Equal(t, "Service Unavailable", statusErr.Reason)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestFetcher(t, url).Fetch(context.Background(), "p1", nil)
		assert.True(t, commonhttp.IsNetworkError(err))
	})

	t.Run("malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"options_detail": [1, 2]}`))
		}))
		defer srv.Close()

		_, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), "p1", nil)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing product id", func(t *testing.T) {
		_, err := newTestFetcher(t, "http://127.0.0.1:1").Fetch(context.Background(), "", nil)
		assert.ErrorIs(t, err, ErrInvalidProductID)
	})
}
