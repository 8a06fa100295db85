// Package output provides result table formatters.
package output

import (
	"bufio"
	"io"
	"strings"
)

// TabWriter writes tables in tab-delimited format.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader(columns []string) error {
	return tw.WriteRow(columns)
}

// WriteRow writes a single line. Tabs and line breaks inside values are
// replaced by spaces so every row stays on one line.
func (tw *TabWriter) WriteRow(values []string) error {
	cleaned := make([]string, len(values))
	for i, v := range values {
		cleaned[i] = tabCleaner.Replace(v)
	}
	_, err := tw.w.WriteString(strings.Join(cleaned, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

var tabCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
