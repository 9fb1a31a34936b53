// internal/catalog/source.go
package catalog

import (
	"context"
	"fmt"
	"net/url"

	commonhttp "storefront/internal/common/http"
)

const BackendName = "options"

// Source returns the raw options envelope for a product and the comma-joined
// ids of the current selection.
type Source interface {
	Fetch(ctx context.Context, productID, selectedOptions string) ([]byte, error)
}

// HTTPSource calls the options aggregation endpoint.
type HTTPSource struct {
	client   *commonhttp.Client
	endpoint string
}

func NewHTTPSource(client *commonhttp.Client, endpoint string) *HTTPSource {
	return &HTTPSource{client: client, endpoint: endpoint}
}

func (s *HTTPSource) Fetch(ctx context.Context, productID, selectedOptions string) ([]byte, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse options endpoint: %w", err)
	}
	q := u.Query()
	q.Set("productId", productID)
	q.Set("selectedOptions", selectedOptions)
	u.RawQuery = q.Encode()

	return s.client.GetJSON(ctx, BackendName, u.String())
}
