package view

import (
	"strings"

	"storefront/internal/configurator"
	"storefront/internal/product"
)

type Status string

const (
	StatusLoading      Status = "loading"
	StatusProductError Status = "product_error"
	StatusNotFound     Status = "not_found"
	StatusReady        Status = "ready"
)

const defaultTitle = "Product Options"

type Choice struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Selector is one single-choice control per option type. Value is "" when
// the type has no selection.
type Selector struct {
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder"`
	Value       string   `json:"value"`
	Disabled    bool     `json:"disabled"`
	Choices     []Choice `json:"choices"`
}

type Page struct {
	Status         Status     `json:"status"`
	ProductID      string     `json:"productId"`
	Title          string     `json:"title"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Message        string     `json:"message,omitempty"`
	SKU            string     `json:"sku,omitempty"`
	Selectors      []Selector `json:"selectors"`
	OptionsLoading bool       `json:"optionsLoading"`
	OptionsByType  string     `json:"optionsByType"`
	OptionIDs      string     `json:"optionIds,omitempty"`
}

func (p Page) ShowSKU() bool { return p.SKU != "" }

type Composer struct {
	MediaBaseURL string
}

func NewComposer(mediaBaseURL string) *Composer {
	return &Composer{MediaBaseURL: mediaBaseURL}
}

// Compose builds the configurator page for a state snapshot.
func (c *Composer) Compose(st configurator.State) Page {
	encoded, _ := st.Selection.MarshalJSON()
	page := Page{
		ProductID:      st.ProductID,
		Title:          defaultTitle,
		SKU:            st.SKU,
		OptionsLoading: st.OptionsLoading,
		OptionsByType:  string(encoded),
		OptionIDs:      st.Selection.Joined(),
		Selectors:      []Selector{},
	}

	switch {
	case st.ProductLoading:
		page.Status = StatusLoading
	case st.ProductFailure != nil && st.ProductFailure.Kind == product.KindNotFound:
		page.Status = StatusNotFound
		page.Message = st.ProductFailure.Message
	case st.ProductFailure != nil:
		page.Status = StatusProductError
		page.Message = st.ProductFailure.Message
	default:
		page.Status = StatusReady
	}

	if st.Summary != nil {
		if st.Summary.ProductName != "" {
			page.Title = st.Summary.ProductName
		}
		if st.Summary.ProductImage != "" {
			page.ImageURL = c.mediaURL(st.Summary.ProductImage)
		}
	}
	if st.Product != nil {
		if st.Product.DisplayName != "" {
			page.Title = st.Product.DisplayName
		}
		if st.Product.ImageURL != "" {
			page.ImageURL = st.Product.ImageURL
		}
	}

	for _, g := range Group(st.Options) {
		value, _ := st.Selection.Get(g.Type)
		sel := Selector{
			Type:        g.Type,
			Placeholder: "Select " + g.Type,
			Value:       value,
			Disabled:    st.OptionsLoading,
			Choices:     make([]Choice, 0, len(g.Options)),
		}
		for _, o := range g.Options {
			sel.Choices = append(sel.Choices, Choice{
				ID:       o.OptionID,
				Label:    o.OptionValue,
				Selected: o.OptionID == value,
			})
		}
		page.Selectors = append(page.Selectors, sel)
	}
	return page
}

func (c *Composer) mediaURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.MediaBaseURL + ref
}
