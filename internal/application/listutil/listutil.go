// Package listutil parses and encodes the screen's list parameters and
// paginates the filtered list.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"gradebook/internal/application/roster"
)

// Query parameter names used by the screen.
const (
	ParamQuery   = "q"
	ParamClass   = "classe"
	ParamSort    = "sort"
	ParamPage    = "page"
	ParamPerPage = "per_page"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 50

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{20, 50, 100, 200}

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// ListParams combines the view state and pagination.
type ListParams struct {
	PageParams
	View roster.ViewState
}

// ParsePageParams extracts page and per_page from URL query values.
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get(ParamPage))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get(ParamPerPage))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseViewState extracts search, class and sort.
// POST: Class is never empty (defaults to roster.AllClasses); Sort is a known order
func ParseViewState(q url.Values) roster.ViewState {
	st := roster.DefaultState()
	st.Query = strings.TrimSpace(q.Get(ParamQuery))
	if c := q.Get(ParamClass); c != "" {
		st.Class = c
	}
	st.Sort = roster.ParseSort(q.Get(ParamSort))
	return st
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values) ListParams {
	return ListParams{
		PageParams: ParsePageParams(q),
		View:       ParseViewState(q),
	}
}

// Encode returns the query string for p, omitting defaults so reset links
// stay short.
func (p ListParams) Encode() string {
	v := url.Values{}
	if p.View.Query != "" {
		v.Set(ParamQuery, p.View.Query)
	}
	if p.View.Class != "" && p.View.Class != roster.AllClasses {
		v.Set(ParamClass, p.View.Class)
	}
	if p.View.Sort != "" && p.View.Sort != roster.SortNameAsc {
		v.Set(ParamSort, string(p.View.Sort))
	}
	if p.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(p.Page))
	}
	if p.PerPage != 0 && p.PerPage != DefaultPerPage {
		v.Set(ParamPerPage, strconv.Itoa(p.PerPage))
	}
	return v.Encode()
}

// WithPage returns a copy of p pointing at page.
func (p ListParams) WithPage(page int) ListParams {
	p.Page = page
	return p
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage)
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1,TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// PageNumbers returns at most 5 page numbers centered on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(p.Page-maxButtons/2, 1)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-maxButtons+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

// Paginate returns the slice of items on the page described by info.
func Paginate[T any](items []T, info PageInfo) []T {
	start := min(info.Offset(), len(items))
	end := min(start+info.PerPage, len(items))
	return items[start:end]
}
