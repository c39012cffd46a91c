// Package export renders a user's ledger as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/money"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Transactions"
)

var header = []string{"Date", "Direction", "Category", "Amount", "Note"}

// utf8BOM lets spreadsheet apps detect the encoding of CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Filename is the download name for an export created at now, e.g. transactions_20250314.csv.
func Filename(ext string, now time.Time) string {
	return fmt.Sprintf("transactions_%s.%s", now.Format("20060102"), ext)
}

func row(e *models.Transaction) []string {
	return []string{
		e.OccurredOn.UTC().Format("2006-01-02"),
		string(e.Direction),
		e.Category.Name,
		money.Format(e.AmountCent),
		e.Note,
	}
}

// WriteCSV writes a header and one record per entry. Entries need their Category loaded.
func WriteCSV(w io.Writer, entries []models.Transaction) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range entries {
		if err := cw.Write(row(&entries[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook. Amounts are numeric cells.
func WriteXLSX(w io.Writer, entries []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet instead of adding a second one
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i := range entries {
		e := &entries[i]
		r := i + 2
		values := []any{
			e.OccurredOn.UTC().Format("2006-01-02"),
			string(e.Direction),
			e.Category.Name,
			money.FromCent(e.AmountCent).InexactFloat64(),
			e.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	widths := map[string]float64{"A": 12, "B": 10, "C": 15, "D": 14, "E": 40}
	for col, width := range widths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
