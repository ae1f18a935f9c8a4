package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/tabular"
	"github.com/BerylCAtieno/twin-documents/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view [twin-id] [filename]",
	Short: "Show a page of a CSV document",
	Long: `Loads a CSV document and prints one page of it.

Search matches any cell; --filter narrows a single column and may be
repeated. Columns are given by zero-based index or by header name.`,
	Args: cobra.ExactArgs(2),
	RunE: runView,
}

var exportCmd = &cobra.Command{
	Use:   "export [twin-id] [filename]",
	Short: "Save the filtered and sorted rows of a CSV document",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

type viewFlags struct {
	search  string
	filters []string
	sortBy  string
	desc    bool
	page    int
	rows    int
}

var (
	viewOpts     viewFlags
	exportFormat string
	exportOut    string
)

func addViewFlags(cmd *cobra.Command, f *viewFlags, paging bool) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Case-insensitive text to find in any cell")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "Column filter as COLUMN=TEXT (repeatable)")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Sort descending")
	if paging {
		cmd.Flags().IntVarP(&f.page, "page", "p", 1, "Page to show")
		cmd.Flags().IntVarP(&f.rows, "rows", "n", tabular.DefaultRowsPerPage, "Rows per page")
	}
}

func init() {
	addViewFlags(viewCmd, &viewOpts, true)
	addViewFlags(exportCmd, &viewOpts, false)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default <name>-filtered.<format>)")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(exportCmd)
}

// openSession loads the document and applies the flags once the headers
// are known, so columns can be named.
func openSession(cmd *cobra.Command, twinID, filename string, f viewFlags) (*viewer.Session, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	session := viewer.NewSession(documentAPI, twinID, filename, tabular.State{}, logger)
	if err := session.Load(ctx); err != nil {
		return nil, fmt.Errorf("could not load %s (run the command again to retry): %w", filename, err)
	}

	var applyErr error
	_ = session.Update(func(v *tabular.View) {
		headers := v.Table().Headers

		v.SetSearch(f.search)
		for _, raw := range f.filters {
			key, value, ok := strings.Cut(raw, "=")
			if !ok {
				applyErr = fmt.Errorf("invalid filter %q, expected COLUMN=TEXT", raw)
				return
			}
			col, err := resolveColumn(headers, key)
			if err != nil {
				applyErr = err
				return
			}
			v.SetFilter(col, value)
		}

		if f.sortBy != "" {
			col, err := resolveColumn(headers, f.sortBy)
			if err != nil {
				applyErr = err
				return
			}
			dir := tabular.Ascending
			if f.desc {
				dir = tabular.Descending
			}
			v.SetSort(&tabular.SortSpec{ColumnIndex: col, Direction: dir})
		}

		if f.rows > 0 {
			v.SetRowsPerPage(f.rows)
		}
		if f.page > 0 {
			v.GoToPage(f.page)
		}
	})
	if applyErr != nil {
		return nil, applyErr
	}
	return session, nil
}

// resolveColumn accepts a zero-based index or a header name.
func resolveColumn(headers []string, key string) (int, error) {
	key = strings.TrimSpace(key)
	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 0 || idx >= len(headers) {
			return 0, fmt.Errorf("column %d out of range (0-%d)", idx, len(headers)-1)
		}
		return idx, nil
	}
	for i, h := range headers {
		if strings.EqualFold(h, key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", key)
}

func runView(cmd *cobra.Command, args []string) error {
	session, err := openSession(cmd, args[0], args[1], viewOpts)
	if err != nil {
		return err
	}

	headers, page, err := session.Page()
	if err != nil {
		return err
	}

	var sort *tabular.SortSpec
	_ = session.Update(func(v *tabular.View) { sort = v.State().Sort })

	if session.Status() == viewer.StateNoResults {
		cmd.Println(renderTable(headers, nil, sort))
		cmd.Println("No rows match the current search and filters.")
		return nil
	}

	cmd.Println(renderTable(headers, page.Rows, sort))
	cmd.Println(pageIndicator(page))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format := models.ExportFormat(strings.ToLower(exportFormat))
	if format != models.ExportCSV && format != models.ExportXLSX {
		return fmt.Errorf("unsupported format %q, use csv or xlsx", exportFormat)
	}

	session, err := openSession(cmd, args[0], args[1], viewOpts)
	if err != nil {
		return err
	}

	data, err := session.Export(format)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	out := exportOut
	if out == "" {
		base := strings.TrimSuffix(args[1], filepath.Ext(args[1]))
		out = fmt.Sprintf("%s-filtered.%s", base, format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	cmd.Printf("Wrote %s\n", out)
	return nil
}

func pageIndicator(p tabular.Page) string {
	return fmt.Sprintf("Page %d/%d (%d rows)", p.CurrentPage, p.TotalPages, p.TotalRows)
}

func renderTable(headers []string, rows []tabular.Row, sort *tabular.SortSpec) string {
	labels := make([]string, len(headers))
	for i, h := range headers {
		labels[i] = h
		if sort != nil && sort.ColumnIndex == i {
			if sort.Direction == tabular.Descending {
				labels[i] += " ▼"
			} else {
				labels[i] += " ▲"
			}
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(labels...)

	// Short rows are padded so every line has a cell per header.
	for _, r := range rows {
		cells := make([]string, len(headers))
		for i := range cells {
			cells[i] = r.Cell(i)
		}
		t.Row(cells...)
	}
	return t.String()
}
