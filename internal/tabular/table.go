// Package tabular turns CSV text into a table and derives the searchable,
// sortable, paginated row window shown to users.
//
// The CSV dialect is deliberately simple: double quotes toggle a quoted
// section and are dropped, commas inside quotes are kept, and there is no
// support for escaped quotes ("") or line breaks inside quoted fields.
package tabular

import "strings"

// Row is one record of a table, one string per cell.
type Row []string

// Cell returns the value at index i, or "" when the row has no such cell.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Table is the parsed form of one CSV document. Rows keep source order and
// are not padded or truncated to the header length.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Parse never fails: malformed input at worst yields misaligned columns.
func Parse(content string) *Table {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return &Table{Headers: []string{}, Rows: []Row{}}
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, parseLine(line))
	}

	return &Table{
		Headers: parseLine(lines[0]),
		Rows:    rows,
	}
}

func parseLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}
