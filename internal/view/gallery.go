package view

import (
	"net/url"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/search"
	"storefront/internal/selection"
)

type GalleryCard struct {
	ProductID string
	Title     string
	ImageURL  string
	Link      string
}

type GalleryPage struct {
	Query      string
	Cards      []GalleryCard
	Total      int64
	Summary    string
	Pagination search.Pagination
	Error      string
}

// PageLink returns the gallery URL for page n of the current query.
func (g GalleryPage) PageLink(n int) string {
	v := url.Values{}
	if g.Query != "" {
		v.Set("q", g.Query)
	}
	v.Set("page", strconv.Itoa(n))
	return "/product-gallery?" + v.Encode()
}

func (g GalleryPage) PrevLink() string { return g.PageLink(g.Pagination.Current - 1) }

func (g GalleryPage) NextLink() string { return g.PageLink(g.Pagination.Current + 1) }

// ComposeGallery builds the gallery page. A nil result with err set renders
// the error state.
func ComposeGallery(query string, page, perPage, window int, result *models.SearchResult, err error) GalleryPage {
	g := GalleryPage{Query: query}
	if err != nil {
		g.Error = "Products could not be loaded. Please try again."
		return g
	}
	if result == nil {
		return g
	}

	g.Total = result.Total
	totalPages := search.TotalPages(result.Total, perPage)
	g.Pagination = search.Paginate(page, totalPages, window)
	g.Summary = search.Summary(g.Pagination.Current, perPage, result.Total)

	for _, h := range result.Hits {
		if h.ProductID == "" {
			continue
		}
		v := url.Values{}
		v.Set(selection.ParamProductID, h.ProductID)
		g.Cards = append(g.Cards, GalleryCard{
			ProductID: h.ProductID,
			Title:     h.ProductName,
			ImageURL:  search.NormalizeImageURL(h.PrimaryImage()),
			Link:      "/products?" + v.Encode(),
		})
	}
	return g
}
