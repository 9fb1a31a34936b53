// internal/search/pagination.go
package search

import "fmt"

// PageItem is one entry of the pagination bar: a page number or an ellipsis.
type PageItem struct {
	Number   int
	Current  bool
	Ellipsis bool
}

type Pagination struct {
	Current    int
	TotalPages int
	Items      []PageItem
	HasPrev    bool
	HasNext    bool
}

// TotalPages is ceil(total / perPage).
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Paginate lays out a window of at most window page numbers around current,
// plus the first and last page with an ellipsis when they are not adjacent to
// the window. A single page yields no items.
func Paginate(current, totalPages, window int) Pagination {
	if window < 1 {
		window = 1
	}
	if current < 1 {
		current = 1
	}
	if totalPages > 0 && current > totalPages {
		current = totalPages
	}

	p := Pagination{
		Current:    current,
		TotalPages: totalPages,
		HasPrev:    current > 1,
		HasNext:    current < totalPages,
	}
	if totalPages <= 1 {
		return p
	}

	start := max(1, current-window/2)
	end := min(totalPages, start+window-1)
	if end-start+1 < window {
		start = max(1, end-window+1)
	}

	if start > 1 {
		p.Items = append(p.Items, PageItem{Number: 1})
		if start > 2 {
			p.Items = append(p.Items, PageItem{Ellipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Items = append(p.Items, PageItem{Number: i, Current: i == current})
	}
	if end < totalPages {
		if end < totalPages-1 {
			p.Items = append(p.Items, PageItem{Ellipsis: true})
		}
		p.Items = append(p.Items, PageItem{Number: totalPages})
	}
	return p
}

// Summary renders "Showing a to b of n results" for the given page.
func Summary(page, perPage int, total int64) string {
	if total <= 0 {
		return "Showing 0 results"
	}
	from := int64((page-1)*perPage) + 1
	to := min(int64(page*perPage), total)
	return fmt.Sprintf("Showing %d to %d of %d results", from, to, total)
}
