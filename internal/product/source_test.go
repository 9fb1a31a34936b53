package product

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "storefront/internal/common/http"
)

func TestHTTPSource_FindByIDs(t *testing.T) {
	var gotIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"prod34521304","displayName":"Sample Product","imageUrl":"https://example.com/a.jpg","extra":true}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(commonhttp.NewClient(time.Second, "test"), srv.URL+"/rh/api/products/v1")
	products, err := src.FindByIDs(context.Background(), []string{"prod34521304"})
	require.NoError(t, err)

	assert.Equal(t, "prod34521304", gotIDs)
	require.Len(t, products, 1)
	assert.Equal(t, "Sample Product", products[0].DisplayName)
	assert.Equal(t, "https://example.com/a.jpg", products[0].ImageURL)
}

func TestDecodeProducts(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		malformed bool
	}{
		{name: "empty array", body: `[]`, wantLen: 0},
		{name: "null fields", body: `[{"id":"p1","displayName":null,"imageUrl":null}]`, wantLen: 1},
		{name: "object instead of array", body: `{"id":"p1"}`, malformed: true},
		{name: "missing id", body: `[{"displayName":"x"}]`, malformed: true},
		{name: "html error page", body: `<html></html>`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := DecodeProducts([]byte(tt.body))
			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Len(t, products, tt.wantLen)
		})
	}
}
