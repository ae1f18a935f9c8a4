package tabular

// DefaultRowsPerPage is used when a caller does not pick a page size.
const DefaultRowsPerPage = 10

// PageState selects the visible window. RowsPerPage values below 1 are
// treated as 1.
type PageState struct {
	CurrentPage int `json:"current_page"`
	RowsPerPage int `json:"rows_per_page"`
}

// Page is one window over a filtered, sorted view.
type Page struct {
	Rows        []Row `json:"rows"`
	TotalRows   int   `json:"total_rows"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	RowsPerPage int   `json:"rows_per_page"`
}

// TotalPages is never below 1, so an empty view still has a page 1.
func TotalPages(totalRows, rowsPerPage int) int {
	rowsPerPage = normalizeRowsPerPage(rowsPerPage)
	pages := (totalRows + rowsPerPage - 1) / rowsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage forces page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices view according to st. The requested page is clamped, so
// the returned CurrentPage may differ from st.CurrentPage.
func Paginate(view []Row, st PageState) Page {
	rowsPerPage := normalizeRowsPerPage(st.RowsPerPage)
	totalPages := TotalPages(len(view), rowsPerPage)
	current := ClampPage(st.CurrentPage, totalPages)

	start := (current - 1) * rowsPerPage
	end := start + rowsPerPage
	if start > len(view) {
		start = len(view)
	}
	if end > len(view) {
		end = len(view)
	}

	rows := make([]Row, end-start)
	copy(rows, view[start:end])

	return Page{
		Rows:        rows,
		TotalRows:   len(view),
		TotalPages:  totalPages,
		CurrentPage: current,
		RowsPerPage: rowsPerPage,
	}
}

func normalizeRowsPerPage(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
