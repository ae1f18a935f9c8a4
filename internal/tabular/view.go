package tabular

// State is everything besides the table that decides what a user sees.
type State struct {
	Search  string       `json:"search,omitempty"`
	Filters ColumnFilter `json:"filters,omitempty"`
	Sort    *SortSpec    `json:"sort,omitempty"`
	Page    PageState    `json:"page"`
}

// View couples a table with its viewing state. Every read recomputes the
// pipeline from scratch. A View is not safe for concurrent use.
type View struct {
	table *Table
	state State
}

func NewView(t *Table, st State) *View {
	if t == nil {
		t = &Table{Headers: []string{}, Rows: []Row{}}
	}
	if st.Filters == nil {
		st.Filters = ColumnFilter{}
	} else {
		st.Filters = st.Filters.Clone()
	}
	if st.Sort != nil {
		s := *st.Sort
		st.Sort = &s
	}
	if st.Page.RowsPerPage < 1 {
		st.Page.RowsPerPage = DefaultRowsPerPage
	}
	if st.Page.CurrentPage < 1 {
		st.Page.CurrentPage = 1
	}
	return &View{table: t, state: st}
}

func (v *View) Table() *Table { return v.table }

// State returns a copy of the current viewing state.
func (v *View) State() State {
	st := v.state
	st.Filters = v.state.Filters.Clone()
	if v.state.Sort != nil {
		s := *v.state.Sort
		st.Sort = &s
	}
	return st
}

func (v *View) SetSearch(term string) {
	v.state.Search = term
	v.state.Page.CurrentPage = 1
}

func (v *View) SetFilter(column int, value string) {
	if value == "" {
		delete(v.state.Filters, column)
	} else {
		v.state.Filters[column] = value
	}
	v.state.Page.CurrentPage = 1
}

func (v *View) ClearFilter(column int) {
	delete(v.state.Filters, column)
	v.state.Page.CurrentPage = 1
}

func (v *View) ClearFilters() {
	v.state.Filters = ColumnFilter{}
	v.state.Page.CurrentPage = 1
}

// ToggleSort advances the header-click cycle for column.
func (v *View) ToggleSort(column int) {
	v.state.Sort = NextSort(v.state.Sort, column)
}

// SetSort replaces the active sort; nil removes it.
func (v *View) SetSort(spec *SortSpec) {
	if spec == nil {
		v.state.Sort = nil
		return
	}
	s := *spec
	v.state.Sort = &s
}

func (v *View) SetRowsPerPage(n int) {
	v.state.Page.RowsPerPage = normalizeRowsPerPage(n)
	v.state.Page.CurrentPage = 1
}

// GoToPage moves to page n, clamped into the valid range.
func (v *View) GoToPage(n int) {
	v.state.Page.CurrentPage = ClampPage(n, v.totalPages())
}

func (v *View) FirstPage() { v.GoToPage(1) }

func (v *View) PrevPage() { v.GoToPage(v.state.Page.CurrentPage - 1) }

func (v *View) NextPage() { v.GoToPage(v.state.Page.CurrentPage + 1) }

func (v *View) LastPage() { v.GoToPage(v.totalPages()) }

// Filtered returns the searched, filtered and sorted rows before paging.
func (v *View) Filtered() []Row {
	return Apply(v.table, v.state.Search, v.state.Filters, v.state.Sort)
}

// Result computes the visible window and stores the clamped page number.
func (v *View) Result() Page {
	page := Paginate(v.Filtered(), v.state.Page)
	v.state.Page.CurrentPage = page.CurrentPage
	return page
}

func (v *View) totalPages() int {
	return TotalPages(len(v.Filtered()), v.state.Page.RowsPerPage)
}
