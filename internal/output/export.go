package output

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/genotype"
)

// Supported export formats.
const (
	FormatTSV  = "tsv"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned for an export format that is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// TableWriter writes a header followed by rows of string cells.
type TableWriter interface {
	WriteHeader(columns []string) error
	WriteRow(values []string) error
	Flush() error
}

// CheckFormat returns an ErrUnknownFormat error if format is not supported.
func CheckFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatTSV, "tab", "", FormatCSV, FormatXLSX:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// NewWriter returns the TableWriter for format ("tsv", "csv" or "xlsx").
func NewWriter(format string, w io.Writer) (TableWriter, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w, DefaultSheet)
	default:
		return NewTabWriter(w), nil
	}
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/tab-separated-values; charset=utf-8"
	}
}

// WriteTable writes a header and rows, then flushes.
func WriteTable(tw TableWriter, columns []string, rows [][]string) error {
	if err := tw.WriteHeader(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := tw.WriteRow(r); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteRows writes genotyping results with the Sample, level_1..level_5
// header.
func WriteRows(tw TableWriter, rows []genotype.Row) error {
	values := make([][]string, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	return WriteTable(tw, genotype.Columns, values)
}

// MarkerColumns is the header of a marker table export.
var MarkerColumns = []string{"POS", "REF", "ALT", "lineage", "level"}

// WriteMarkers writes the marker table in long format, one marker per row.
func WriteMarkers(tw TableWriter, markers []barcode.Marker) error {
	values := make([][]string, len(markers))
	for i, m := range markers {
		values[i] = []string{
			strconv.FormatInt(m.Pos, 10),
			m.Ref,
			m.Alt,
			m.Lineage,
			strconv.Itoa(m.Level),
		}
	}
	return WriteTable(tw, MarkerColumns, values)
}
