package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the name of the single worksheet written by XLSXWriter.
const DefaultSheet = "lineages"

// XLSXWriter writes a table to one worksheet of an Excel workbook. Rows are
// kept in memory; the workbook is written to the underlying writer on Flush.
type XLSXWriter struct {
	w     io.Writer
	file  *excelize.File
	sheet string
	row   int
}

// NewXLSXWriter creates a workbook writer with a single sheet.
func NewXLSXWriter(w io.Writer, sheet string) (*XLSXWriter, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	return &XLSXWriter{w: w, file: f, sheet: sheet, row: 1}, nil
}

// WriteHeader writes the header row and freezes it.
func (xw *XLSXWriter) WriteHeader(columns []string) error {
	if err := xw.WriteRow(columns); err != nil {
		return err
	}
	return xw.file.SetPanes(xw.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// WriteRow writes a single row.
func (xw *XLSXWriter) WriteRow(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, xw.row)
	if err != nil {
		return err
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := xw.file.SetSheetRow(xw.sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", xw.row, err)
	}
	xw.row++
	return nil
}

// Flush writes the workbook and releases it. The writer must not be used
// afterwards.
func (xw *XLSXWriter) Flush() error {
	defer xw.file.Close()
	if err := xw.file.Write(xw.w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
