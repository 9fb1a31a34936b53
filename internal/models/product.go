// internal/models/product.go
package models

type Product struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ImageURL    string `json:"imageUrl"`
}

// SearchHit is one product card of the gallery.
type SearchHit struct {
	DocID       string   `json:"-"`
	ProductID   string   `json:"product_id_s"`
	ProductName string   `json:"product_name_s"`
	ImageURL    string   `json:"image_url_s,omitempty"`
	ImageURLs   []string `json:"image_urls_ss,omitempty"`
	Score       float64  `json:"-"`
}

// PrimaryImage returns the first image reference of the hit, or "".
func (h SearchHit) PrimaryImage() string {
	if h.ImageURL != "" {
		return h.ImageURL
	}
	if len(h.ImageURLs) > 0 {
		return h.ImageURLs[0]
	}
	return ""
}

type FacetBucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type SearchResult struct {
	Hits   []SearchHit              `json:"hits"`
	Total  int64                    `json:"total"`
	Facets map[string][]FacetBucket `json:"facets,omitempty"`
	Took   int64                    `json:"took"`
}
