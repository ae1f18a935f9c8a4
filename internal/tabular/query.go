package tabular

import (
	"sort"
	"strings"
)

// ColumnFilter maps a column index to a substring every kept row must
// contain in that column. Empty values are ignored.
type ColumnFilter map[int]string

// Active reports whether at least one filter value is non-empty.
func (f ColumnFilter) Active() bool {
	for _, v := range f {
		if v != "" {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of f.
func (f ColumnFilter) Clone() ColumnFilter {
	out := make(ColumnFilter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Apply runs search, column filters and sort over t, in that order. The
// result is a fresh slice; t is never modified.
func Apply(t *Table, search string, filters ColumnFilter, spec *SortSpec) []Row {
	if t == nil {
		return []Row{}
	}

	needle := strings.ToLower(search)
	active := activeFilters(filters, len(t.Headers))

	out := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if !matchesSearch(row, needle) {
			continue
		}
		if !matchesFilters(row, active) {
			continue
		}
		out = append(out, row)
	}

	if spec != nil {
		sortRows(out, *spec)
	}

	return out
}

type columnMatch struct {
	index int
	value string
}

// activeFilters drops empty values and indexes outside the header range,
// and orders the rest so evaluation is deterministic.
func activeFilters(filters ColumnFilter, width int) []columnMatch {
	var out []columnMatch
	for idx, value := range filters {
		if value == "" || idx < 0 || idx >= width {
			continue
		}
		out = append(out, columnMatch{index: idx, value: strings.ToLower(value)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func matchesSearch(row Row, needle string) bool {
	if needle == "" {
		return true
	}
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), needle) {
			return true
		}
	}
	return false
}

func matchesFilters(row Row, filters []columnMatch) bool {
	for _, f := range filters {
		if !strings.Contains(strings.ToLower(row.Cell(f.index)), f.value) {
			return false
		}
	}
	return true
}
