package view

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func renderDoc(t *testing.T, name string, data interface{}) *goquery.Document {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestRender_ProductsPage(t *testing.T) {
	page := NewComposer(mediaBase).Compose(readyState())
	doc := renderDoc(t, "products.html", page)

	assert.Equal(t, "Sample Product", doc.Find("h1.product-title").Text())
	src, _ := doc.Find("img.product-image").Attr("src")
	assert.Equal(t, "https://example.com/p.jpg", src)

	selects := doc.Find("form.selector select")
	require.Equal(t, 2, selects.Length())

	color := selects.First()
	assert.Equal(t, "Color", color.AttrOr("data-type", ""))
	assert.Equal(t, "Select Color", color.Find("option").First().Text())
	assert.Equal(t, "c2", color.Find("option[selected]").AttrOr("value", ""))
	_, disabled := color.Attr("disabled")
	assert.False(t, disabled)

	hidden := doc.Find(`form.selector input[name="optionsByType"]`).First()
	assert.Equal(t, `{"Color":"c2"}`, hidden.AttrOr("value", ""))

	assert.Equal(t, "sku-123", doc.Find(".sku-value").Text())
}

func TestRender_ProductsPage_LoadingOptionsDisablesSelects(t *testing.T) {
	st := readyState()
	st.OptionsLoading = true
	st.SKU = ""
	doc := renderDoc(t, "products.html", NewComposer(mediaBase).Compose(st))

	doc.Find("form.selector select").Each(func(_ int, s *goquery.Selection) {
		_, disabled := s.Attr("disabled")
		assert.True(t, disabled)
	})
	assert.Equal(t, 0, doc.Find(".sku").Length())
}

func TestRender_ProductsPage_Loading(t *testing.T) {
	st := readyState()
	st.Product = nil
	st.ProductFailure = nil
	st.ProductLoading = true
	doc := renderDoc(t, "products.html", NewComposer(mediaBase).Compose(st))

	assert.Equal(t, "Loading...", doc.Find(".status-loading").Text())
	assert.Equal(t, 0, doc.Find("form.selector").Length())
}

func TestRender_Gallery(t *testing.T) {
	result := &models.SearchResult{
		Total: 30,
		Hits: []models.SearchHit{
			{ProductID: "prod1", ProductName: "Cloud Sofa", ImageURL: "//cdn.example.com/cloud.jpg"},
			{ProductID: "", ProductName: "no id"},
		},
	}
	g := ComposeGallery("sofa", 2, 12, 5, result, nil)
	doc := renderDoc(t, "gallery.html", g)

	assert.Equal(t, "Showing 13 to 24 of 30 results", doc.Find(".results-info p").Text())

	cards := doc.Find("a.product-card")
	require.Equal(t, 1, cards.Length())
	assert.Equal(t, "/products?productId=prod1", cards.AttrOr("href", ""))
	assert.Equal(t, "https://cdn.example.com/cloud.jpg", cards.Find("img").AttrOr("src", ""))

	assert.Equal(t, "2", doc.Find(".pagination .current").Text())
	assert.Equal(t, "/product-gallery?page=1&q=sofa", doc.Find(".pagination a.page-prev").AttrOr("href", ""))
	assert.Equal(t, "/product-gallery?page=3&q=sofa", doc.Find(".pagination a.page-next").AttrOr("href", ""))
	assert.Equal(t, 3, doc.Find(".pagination .page").Length())
}

func TestRender_GalleryError(t *testing.T) {
	g := ComposeGallery("sofa", 1, 12, 5, nil, assert.AnError)
	doc := renderDoc(t, "gallery.html", g)

	assert.Equal(t, "Products could not be loaded. Please try again.", doc.Find("p.error").Text())
	assert.Equal(t, 0, doc.Find(".pagination").Length())
}
