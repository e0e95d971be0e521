package listutil

import (
	"net/url"
	"testing"

	"gradebook/internal/application/roster"
)

// TestParsePageParams verifies defaults, valid values and clamping.
func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name        string
		q           url.Values
		wantPage    int
		wantPerPage int
	}{
		{"defaults", url.Values{}, 1, DefaultPerPage},
		{"valid", url.Values{"page": {"3"}, "per_page": {"100"}}, 3, 100},
		{"per_page not offered", url.Values{"per_page": {"25"}}, 1, DefaultPerPage},
		{"negative page", url.Values{"page": {"-1"}}, 1, DefaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.q)
			if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got page=%d per_page=%d, want %d/%d", p.Page, p.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

// TestParseViewState verifies search, class and sort parsing.
func TestParseViewState(t *testing.T) {
	st := ParseViewState(url.Values{"q": {"  dup "}, "classe": {"CM1"}, "sort": {"classe-desc"}})
	if st.Query != "dup" || st.Class != "CM1" || st.Sort != roster.SortClassDesc {
		t.Errorf("ParseViewState() = %+v", st)
	}

	st = ParseViewState(url.Values{"sort": {"bogus"}})
	if st != roster.DefaultState() {
		t.Errorf("ParseViewState(empty) = %+v, want default", st)
	}
}

// TestListParams_Encode verifies defaults are omitted and values round-trip.
func TestListParams_Encode(t *testing.T) {
	if got := ParseListParams(url.Values{}).Encode(); got != "" {
		t.Errorf("default Encode() = %q, want empty", got)
	}

	p := ParseListParams(url.Values{"q": {"marie"}, "classe": {"CM 2"}, "sort": {"name-desc"}, "page": {"2"}})
	q, err := url.ParseQuery(p.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if back := ParseListParams(q); back != p {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
	if p.WithPage(1).Encode() == p.Encode() {
		t.Error("WithPage(1) should drop the page parameter")
	}
}

// TestNewPageInfo verifies clamping and row numbers.
func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		wantPage, wantPages  int
		wantStart, wantEnd   int
	}{
		{"first page", 1, 20, 45, 1, 3, 1, 20},
		{"last partial page", 3, 20, 45, 3, 3, 41, 45},
		{"page beyond end", 9, 20, 45, 3, 3, 41, 45},
		{"empty", 1, 20, 0, 1, 1, 0, 0},
		{"bad per page", 1, 0, 10, 1, 1, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageInfo(tt.page, tt.perPage, tt.total)
			if p.Page != tt.wantPage || p.TotalPages != tt.wantPages {
				t.Errorf("page=%d pages=%d, want %d/%d", p.Page, p.TotalPages, tt.wantPage, tt.wantPages)
			}
			if p.StartRow() != tt.wantStart || p.EndRow() != tt.wantEnd {
				t.Errorf("rows %d-%d, want %d-%d", p.StartRow(), p.EndRow(), tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// TestPageNumbers verifies the window of page buttons.
func TestPageNumbers(t *testing.T) {
	p := NewPageInfo(5, 20, 200)
	got := p.PageNumbers()
	want := []int{3, 4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("PageNumbers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PageNumbers() = %v, want %v", got, want)
			break
		}
	}
	if n := NewPageInfo(10, 20, 200).PageNumbers(); n[0] != 6 || n[len(n)-1] != 10 {
		t.Errorf("last window = %v, want 6..10", n)
	}
}

// TestPaginate verifies slicing at the edges.
func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Paginate(items, NewPageInfo(2, 2, len(items))); len(got) != 2 || got[0] != 3 {
		t.Errorf("page 2 = %v", got)
	}
	if got := Paginate(items, NewPageInfo(3, 2, len(items))); len(got) != 1 || got[0] != 5 {
		t.Errorf("page 3 = %v", got)
	}
	if got := Paginate([]int{}, NewPageInfo(1, 20, 0)); len(got) != 0 {
		t.Errorf("empty = %v", got)
	}
}

// TestShowPagination verifies controls only appear when needed.
func TestShowPagination(t *testing.T) {
	if NewPageInfo(1, 20, 20).ShowPagination() {
		t.Error("exactly one page should not paginate")
	}
	if !NewPageInfo(1, 20, 21).ShowPagination() {
		t.Error("21 rows at 20 per page should paginate")
	}
}
