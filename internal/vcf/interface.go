// Package vcf provides VCF file parsing functionality.
package vcf

// RecordReader is the interface for parsers that read VCF records.
type RecordReader interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// SampleNames returns the sample names, aligned with Record.Samples.
	SampleNames() []string

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
