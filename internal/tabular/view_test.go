package tabular

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryTable(n int) *Table {
	var b strings.Builder
	b.WriteString("sku,qty,warehouse\n")
	for i := 1; i <= n; i++ {
		wh := "north"
		if i%2 == 0 {
			wh = "south"
		}
		fmt.Fprintf(&b, "SKU-%02d,%d,%s\n", i, (i*7)%23, wh)
	}
	return Parse(b.String())
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, State{})
	st := v.State()

	assert.Equal(t, 1, st.Page.CurrentPage)
	assert.Equal(t, DefaultRowsPerPage, st.Page.RowsPerPage)
	assert.NotNil(t, st.Filters)
	assert.Nil(t, st.Sort)
	assert.Empty(t, v.Result().Rows)
}

func TestView_ToggleSortCycle(t *testing.T) {
	v := NewView(inventoryTable(12), State{Page: PageState{RowsPerPage: 100}})
	unsorted := v.Result().Rows

	v.ToggleSort(1)
	require.NotNil(t, v.State().Sort)
	assert.Equal(t, Ascending, v.State().Sort.Direction)

	v.ToggleSort(1)
	require.NotNil(t, v.State().Sort)
	assert.Equal(t, Descending, v.State().Sort.Direction)

	v.ToggleSort(1)
	assert.Nil(t, v.State().Sort)
	assert.Equal(t, unsorted, v.Result().Rows)
}

func TestNextSort_Transitions(t *testing.T) {
	asc0 := NextSort(nil, 0)
	assert.Equal(t, &SortSpec{ColumnIndex: 0, Direction: Ascending}, asc0)

	desc0 := NextSort(asc0, 0)
	assert.Equal(t, &SortSpec{ColumnIndex: 0, Direction: Descending}, desc0)

	assert.Nil(t, NextSort(desc0, 0))

	assert.Equal(t, &SortSpec{ColumnIndex: 2, Direction: Ascending}, NextSort(asc0, 2))
	assert.Equal(t, &SortSpec{ColumnIndex: 2, Direction: Ascending}, NextSort(desc0, 2))
}

func TestView_SearchResetsPage(t *testing.T) {
	v := NewView(inventoryTable(30), State{Page: PageState{RowsPerPage: 10}})
	v.GoToPage(3)
	require.Equal(t, 3, v.Result().CurrentPage)

	v.SetSearch("south")

	page := v.Result()
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 15, page.TotalRows)
}

func TestView_FilterChangesResetPage(t *testing.T) {
	v := NewView(inventoryTable(30), State{Page: PageState{RowsPerPage: 5}})

	v.GoToPage(4)
	v.SetFilter(2, "north")
	assert.Equal(t, 1, v.State().Page.CurrentPage)

	v.GoToPage(2)
	v.ClearFilter(2)
	assert.Equal(t, 1, v.State().Page.CurrentPage)

	v.GoToPage(2)
	v.SetFilter(2, "south")
	v.ClearFilters()
	assert.Equal(t, 1, v.State().Page.CurrentPage)
	assert.Empty(t, v.State().Filters)
}

func TestView_SetFilterEmptyRemovesEntry(t *testing.T) {
	v := NewView(inventoryTable(4), State{})

	v.SetFilter(0, "SKU-01")
	v.SetFilter(0, "")

	assert.NotContains(t, v.State().Filters, 0)
	assert.Equal(t, 4, v.Result().TotalRows)
}

func TestView_Navigation(t *testing.T) {
	v := NewView(inventoryTable(23), State{Page: PageState{RowsPerPage: 10}})

	v.GoToPage(99)
	assert.Equal(t, 3, v.State().Page.CurrentPage)
	assert.Len(t, v.Result().Rows, 3)

	v.GoToPage(0)
	assert.Equal(t, 1, v.State().Page.CurrentPage)

	v.PrevPage()
	assert.Equal(t, 1, v.State().Page.CurrentPage)

	v.NextPage()
	assert.Equal(t, 2, v.State().Page.CurrentPage)

	v.LastPage()
	assert.Equal(t, 3, v.State().Page.CurrentPage)

	v.NextPage()
	assert.Equal(t, 3, v.State().Page.CurrentPage)

	v.FirstPage()
	assert.Equal(t, 1, v.State().Page.CurrentPage)
}

func TestView_SetRowsPerPageResetsPage(t *testing.T) {
	v := NewView(inventoryTable(23), State{Page: PageState{RowsPerPage: 10}})
	v.GoToPage(3)

	v.SetRowsPerPage(5)

	page := v.Result()
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 5, page.TotalPages)

	v.SetRowsPerPage(-1)
	assert.Equal(t, 1, v.State().Page.RowsPerPage)
}

func TestView_ResultClampsStalePage(t *testing.T) {
	v := NewView(inventoryTable(23), State{Page: PageState{CurrentPage: 3, RowsPerPage: 10}})
	v.SetSort(&SortSpec{ColumnIndex: 1, Direction: Descending})

	// Shrink the table's matching set without going through the mutators.
	v.state.Search = "SKU-0"

	page := v.Result()
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, v.State().Page.CurrentPage)
}

func TestView_ResultIsIdempotent(t *testing.T) {
	v := NewView(inventoryTable(23), State{Page: PageState{RowsPerPage: 10}})
	v.SetSearch("SKU")
	v.SetFilter(2, "north")
	v.ToggleSort(1)
	v.GoToPage(2)

	first := v.Result()
	second := v.Result()

	assert.Equal(t, first, second)
}

func TestView_StateIsACopy(t *testing.T) {
	v := NewView(inventoryTable(3), State{Filters: ColumnFilter{0: "SKU"}})

	st := v.State()
	st.Filters[0] = "nope"

	assert.Equal(t, "SKU", v.State().Filters[0])
}

func TestView_SortDoesNotResetPage(t *testing.T) {
	v := NewView(inventoryTable(23), State{Page: PageState{RowsPerPage: 10}})
	v.GoToPage(2)

	v.ToggleSort(0)

	assert.Equal(t, 2, v.Result().CurrentPage)
}
