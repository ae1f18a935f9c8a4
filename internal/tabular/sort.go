package tabular

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection accepts "asc" and "desc" in any case.
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	default:
		return "", false
	}
}

// SortSpec is the single active sort. A nil *SortSpec means unsorted.
type SortSpec struct {
	ColumnIndex int           `json:"column_index"`
	Direction   SortDirection `json:"direction"`
}

// NextSort is the column-header click cycle: unsorted, ascending,
// descending, back to unsorted. Clicking another column always starts
// ascending on it.
func NextSort(current *SortSpec, column int) *SortSpec {
	if current == nil || current.ColumnIndex != column {
		return &SortSpec{ColumnIndex: column, Direction: Ascending}
	}
	if current.Direction == Ascending {
		return &SortSpec{ColumnIndex: column, Direction: Descending}
	}
	return nil
}

func sortRows(rows []Row, spec SortSpec) {
	// Collators keep scratch buffers and must not be shared across goroutines.
	col := collate.New(language.Und, collate.Numeric)

	sort.SliceStable(rows, func(i, j int) bool {
		c := compareCells(col, rows[i].Cell(spec.ColumnIndex), rows[j].Cell(spec.ColumnIndex))
		if spec.Direction == Descending {
			c = -c
		}
		return c < 0
	})
}

// compareCells compares numerically when both cells yield a number after
// dropping everything except digits, '.' and '-'. Otherwise it falls back to
// numeric-aware collation so "10" sorts after "9".
func compareCells(col *collate.Collator, a, b string) int {
	an, aok := leadingNumber(a)
	bn, bok := leadingNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return col.CompareString(a, b)
}

// leadingNumber keeps only digits, '.' and '-' and then reads the longest
// numeric prefix, the way a lenient float parser would: "12.5.3" is 12.5,
// "7-3" is 7, and "-" or "" are not numbers.
func leadingNumber(s string) (float64, bool) {
	var kept strings.Builder
	for _, ch := range s {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			kept.WriteRune(ch)
		}
	}
	digits := kept.String()

	i := 0
	negative := false
	if i < len(digits) && digits[i] == '-' {
		negative = true
		i++
	}

	intStart := i
	for i < len(digits) && digits[i] >= '0' && digits[i] <= '9' {
		i++
	}
	intPart := digits[intStart:i]

	fracPart := ""
	if i < len(digits) && digits[i] == '.' {
		i++
		fracStart := i
		for i < len(digits) && digits[i] >= '0' && digits[i] <= '9' {
			i++
		}
		fracPart = digits[fracStart:i]
	}

	if intPart == "" && fracPart == "" {
		return 0, false
	}
	if intPart == "" {
		intPart = "0"
	}

	literal := intPart
	if fracPart != "" {
		literal += "." + fracPart
	}
	if negative {
		literal = "-" + literal
	}

	n, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}
