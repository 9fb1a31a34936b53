// internal/product/source.go
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	commonhttp "storefront/internal/common/http"
	"storefront/internal/common/validation"
	"storefront/internal/models"
)

const BackendName = "products"

var (
	ErrProductNotFound   = errors.New("PRODUCT_NOT_FOUND")
	ErrMalformedResponse = errors.New("MALFORMED_PRODUCT_RESPONSE")
	ErrInvalidProductID  = errors.New("product id is required")
)

// Source looks up products by id. Ids with no product are simply absent from
// the result.
type Source interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

var productsSchema = validation.MustCompile("products", `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"displayName": {"type": ["string", "null"]},
			"imageUrl": {"type": ["string", "null"]}
		}
	}
}`)

// HTTPSource calls the products endpoint, which answers with a JSON array.
type HTTPSource struct {
	client   *commonhttp.Client
	endpoint string
}

func NewHTTPSource(client *commonhttp.Client, endpoint string) *HTTPSource {
	return &HTTPSource{client: client, endpoint: endpoint}
}

func (s *HTTPSource) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse products endpoint: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	u.RawQuery = q.Encode()

	body, err := s.client.GetJSON(ctx, BackendName, u.String())
	if err != nil {
		return nil, err
	}
	return DecodeProducts(body)
}

// DecodeProducts validates and decodes a products array.
func DecodeProducts(body []byte) ([]models.Product, error) {
	if result := productsSchema.Validate(body); !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, result.Err())
	}
	var products []models.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return products, nil
}
