package tabular

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportCSV joins cells with "," and lines with "\n". Cells are written
// verbatim: a cell holding a comma is not re-quoted, so the output does not
// always parse back to the same table.
func ExportCSV(headers []string, rows []Row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// ExportXLSX writes the header row followed by rows into a single-sheet
// workbook.
func ExportXLSX(headers []string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to resolve cell for row %d: %w", rowNum, err)
	}

	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
