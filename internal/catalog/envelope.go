// internal/catalog/envelope.go
package catalog

import "storefront/internal/models"

// Envelope is the aggregation response of the options backend. Every section
// is optional.
type Envelope struct {
	OptionsDetail   *OptionsDetail             `json:"options_detail,omitempty"`
	SKUResponse     *SearchSection[SKUHit]     `json:"sku_response,omitempty"`
	ProductResponse *SearchSection[ProductHit] `json:"product_response,omitempty"`
}

type OptionsDetail struct {
	Aggregations struct {
		ByType struct {
			Buckets []Bucket `json:"buckets"`
		} `json:"by_type"`
	} `json:"aggregations"`
}

// Bucket groups the options of one type.
type Bucket struct {
	Key      string                   `json:"key"`
	DocCount int64                    `json:"doc_count"`
	Options  SearchSection[OptionHit] `json:"options"`
}

// SearchSection mirrors the hits envelope of an Elasticsearch search response.
type SearchSection[T any] struct {
	Hits struct {
		Hits []T `json:"hits"`
	} `json:"hits"`
}

type OptionHit struct {
	Source models.Option `json:"_source"`
	Status string        `json:"status,omitempty"`
}

type SKUHit struct {
	Source struct {
		ID string `json:"id"`
	} `json:"_source"`
}

type ProductHit struct {
	Source models.ProductSummary `json:"_source"`
}

const StatusUnavailable = "unavailable"
