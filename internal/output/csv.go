package output

import (
	"encoding/csv"
	"io"
)

// CSVWriter writes tables as comma-separated values with RFC 4180 quoting.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the header record.
func (cw *CSVWriter) WriteHeader(columns []string) error {
	return cw.w.Write(columns)
}

// WriteRow writes a single record.
func (cw *CSVWriter) WriteRow(values []string) error {
	return cw.w.Write(values)
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
