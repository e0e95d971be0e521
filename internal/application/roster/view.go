package roster

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"gradebook/internal/domain/student"
)

// AllClasses is the class filter value matching every record.
const AllClasses = "__all__"

// AllClassesLabel is the option label shown for AllClasses.
const AllClassesLabel = "Toutes les classes"

// SortOrder is one of the four list orders.
type SortOrder string

const (
	SortNameAsc   SortOrder = "name-asc"
	SortNameDesc  SortOrder = "name-desc"
	SortClassAsc  SortOrder = "classe-asc"
	SortClassDesc SortOrder = "classe-desc"
)

// SortOrders lists the orders in the order they are offered on screen.
var SortOrders = []SortOrder{SortNameAsc, SortNameDesc, SortClassAsc, SortClassDesc}

// ParseSort returns the order named by s, or SortNameAsc when unknown.
func ParseSort(s string) SortOrder {
	o := SortOrder(s)
	if slices.Contains(SortOrders, o) {
		return o
	}
	return SortNameAsc
}

// ViewState is the screen's search, class filter and sort selection.
type ViewState struct {
	Query string
	Class string
	Sort  SortOrder
}

// DefaultState is the reset state: empty query, every class, name order.
func DefaultState() ViewState {
	return ViewState{Class: AllClasses, Sort: SortNameAsc}
}

// Filter keeps records whose "lastName firstName" contains the query
// (case-insensitive) and whose class matches the filter.
// POST: a record is kept iff both conditions hold; input order is preserved
func Filter(records []student.Record, st ViewState) []student.Record {
	q := strings.ToLower(strings.TrimSpace(st.Query))
	out := make([]student.Record, 0, len(records))
	for _, rec := range records {
		name := strings.ToLower(rec.LastName + " " + rec.FirstName)
		okQ := q == "" || strings.Contains(name, q)
		okC := st.Class == "" || st.Class == AllClasses || rec.ClassName == st.Class
		if okQ && okC {
			out = append(out, rec)
		}
	}
	return out
}

// Sort returns a sorted copy of records. Name orders compare
// "lastName firstName"; class orders compare the class only and keep the
// incoming order for records of the same class.
// INVARIANT: stable; the result is a permutation of the input
func Sort(records []student.Record, order SortOrder) []student.Record {
	out := make([]student.Record, len(records))
	copy(out, records)

	c := newCollator()
	key := func(r student.Record) string { return r.LastName + " " + r.FirstName }
	if order == SortClassAsc || order == SortClassDesc {
		key = func(r student.Record) string { return r.ClassName }
	}
	desc := order == SortNameDesc || order == SortClassDesc

	sort.SliceStable(out, func(i, j int) bool {
		cmp := c.CompareString(key(out[i]), key(out[j]))
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// Apply filters then sorts.
func Apply(records []student.Record, st ViewState) []student.Record {
	return Sort(Filter(records, st), ParseSort(string(st.Sort)))
}

// ClassOption is one entry of the class selector.
type ClassOption struct {
	Value    string
	Label    string
	Selected bool
}

// View caches the class selector between renders. Options are rebuilt only
// when the set of classes changes.
type View struct {
	mu        sync.Mutex
	signature string
	options   []ClassOption
	rebuilds  int
}

// NewView creates an empty View.
func NewView() *View {
	return &View{}
}

// ClassOptions returns the selector options for classes with selected
// marked, and the effective selection. A selection that no longer exists
// resets to AllClasses.
// PRE: classes are distinct and already ordered
func (v *View) ClassOptions(classes []string, selected string) ([]ClassOption, string) {
	sig := AllClasses + "|" + strings.Join(classes, "|")

	v.mu.Lock()
	if sig != v.signature {
		v.signature = sig
		v.rebuilds++
		v.options = make([]ClassOption, 0, len(classes)+1)
		v.options = append(v.options, ClassOption{Value: AllClasses, Label: AllClassesLabel})
		for _, c := range classes {
			v.options = append(v.options, ClassOption{Value: c, Label: c})
		}
	}
	options := make([]ClassOption, len(v.options))
	copy(options, v.options)
	v.mu.Unlock()

	effective := AllClasses
	for _, o := range options {
		if o.Value == selected {
			effective = selected
			break
		}
	}
	for i := range options {
		options[i].Selected = options[i].Value == effective
	}
	return options, effective
}

// Rebuilds returns how many times the options were recomputed.
func (v *View) Rebuilds() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rebuilds
}
