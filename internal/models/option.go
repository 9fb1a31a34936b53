// internal/models/option.go
package models

// Option is one selectable value of one option type, e.g. Color / Red.
type Option struct {
	OptionID         string `json:"option_id_s"`
	OptionTypeName   string `json:"option_type_name_s"`
	OptionValue      string `json:"option_value_s"`
	SortPriority     int    `json:"sort_priority_i"`
	SortPriorityType int    `json:"sort_priority_type_i"`
	TypeID           string `json:"type_id_s"`
}

// ProductSummary is the product section returned next to the options
// aggregation. The configurator uses it as a title and image fallback.
type ProductSummary struct {
	ProductName            string   `json:"product_name_s"`
	ProductImage           string   `json:"product_image_s"`
	IsBundle               *int     `json:"is_bundle_product_i"`
	OptionIDs              []string `json:"option_id_ss,omitempty"`
	OptionOverrideSequence []string `json:"option_override_sequence_ss,omitempty"`
}

// CatalogResult is the outcome of one options fetch. An empty SKU means no
// unambiguous SKU was resolved.
type CatalogResult struct {
	Options []Option        `json:"options"`
	SKU     string          `json:"sku,omitempty"`
	Summary *ProductSummary `json:"summary,omitempty"`
}

func (r *CatalogResult) HasSKU() bool {
	return r != nil && r.SKU != ""
}
