package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/twin-documents/internal/tabular"
	"github.com/BerylCAtieno/twin-documents/internal/utils"
)

const filterParamPrefix = "filter."

// parseTableState reads the table view from query parameters:
//
//	search=<text>  sort=<column>  dir=asc|desc  page=<n>  rows=<n>  filter.<column>=<text>
func parseTableState(q url.Values, defaultRows, maxRows int) (tabular.State, error) {
	state := tabular.State{
		Search:  q.Get("search"),
		Filters: tabular.ColumnFilter{},
		Page:    tabular.PageState{CurrentPage: 1, RowsPerPage: defaultRows},
	}

	for key, values := range q {
		if !strings.HasPrefix(key, filterParamPrefix) || len(values) == 0 {
			continue
		}
		col, err := strconv.Atoi(strings.TrimPrefix(key, filterParamPrefix))
		if err != nil || col < 0 {
			return tabular.State{}, utils.NewBadRequestError("Invalid filter column '" + key + "'")
		}
		if values[0] != "" {
			state.Filters[col] = values[0]
		}
	}

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		col, err := strconv.Atoi(raw)
		if err != nil || col < 0 {
			return tabular.State{}, utils.NewBadRequestError("Invalid sort column")
		}
		dir, ok := tabular.ParseSortDirection(q.Get("dir"))
		if !ok {
			return tabular.State{}, utils.NewBadRequestError("Invalid sort direction, use asc or desc")
		}
		state.Sort = &tabular.SortSpec{ColumnIndex: col, Direction: dir}
	}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return tabular.State{}, utils.NewBadRequestError("Invalid page")
		}
		state.Page.CurrentPage = page
	}

	if raw := strings.TrimSpace(q.Get("rows")); raw != "" {
		rows, err := strconv.Atoi(raw)
		if err != nil || rows < 1 {
			return tabular.State{}, utils.NewBadRequestError("Invalid rows per page")
		}
		state.Page.RowsPerPage = min(rows, maxRows)
	}

	return state, nil
}
