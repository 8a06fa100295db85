// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// minColumns is the number of fixed VCF columns plus one sample column.
const minColumns = 10

// Parser reads records from a VCF file.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string // sample names from #CHROM header line
}

// NewParser creates a new VCF parser for the given file.
// A ".gz" suffix declares the file gzip-compressed; gzip content is also
// detected from its magic bytes regardless of the name.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin, false)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p, err := newParser(file, IsCompressedName(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	p.file = file

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., an upload).
// If compressed is true the content must be a valid gzip stream.
func NewParserFromReader(r io.Reader, compressed bool) (*Parser, error) {
	return newParser(r, compressed)
}

func newParser(r io.Reader, compressed bool) (*Parser, error) {
	p := &Parser{}

	br := bufio.NewReader(r)
	magic, _ := br.Peek(2)

	// Check for gzip magic number (0x1f, 0x8b)
	isGzip := len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b
	switch {
	case isGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &DecompressError{Err: err}
		}
		p.gzipReader = gz
		p.reader = bufio.NewReader(gz)
	case compressed:
		return nil, &DecompressError{Err: gzip.ErrHeader}
	default:
		p.reader = br
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// IsCompressedName reports whether a file name declares gzip content.
func IsCompressedName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gz")
}

// readLine returns the next line without its terminator.
// It returns io.EOF only when no more data is available.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", p.wrapReadError(err)
		}
		// Last line without a trailing newline
		if line == "" {
			return "", io.EOF
		}
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// wrapReadError attributes stream errors to decompression when the
// content is gzipped.
func (p *Parser) wrapReadError(err error) error {
	if p.gzipReader != nil {
		return &DecompressError{Err: err}
	}
	return fmt.Errorf("read vcf: %w", err)
}

// parseHeader skips meta lines and stores the #CHROM header.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			// Extract sample names from columns after FORMAT (index 9+)
			fields := strings.Split(line, "\t")
			if len(fields) < minColumns {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "#CHROM header names no samples",
				}
			}
			p.sampleNames = fields[9:]
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next record from the VCF file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}

		// Skip empty lines and stray meta lines
		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minColumns {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(fields)),
		}
	}

	if n := len(fields) - 9; n > len(p.sampleNames) {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("found %d sample columns, header names %d samples", n, len(p.sampleNames)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	return &Record{
		Chrom:   fields[0],
		Pos:     pos,
		ID:      fields[2],
		Ref:     fields[3],
		Alt:     fields[4],
		Filter:  fields[6],
		Format:  fields[8],
		Samples: fields[9:],
	}, nil
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// DecompressError reports content that was declared or detected as gzip
// but could not be decompressed.
type DecompressError struct {
	Err error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("vcf decompress error: %v", e.Err)
}

func (e *DecompressError) Unwrap() error {
	return e.Err
}

// IsDecompressError reports whether err is or wraps a *DecompressError.
func IsDecompressError(err error) bool {
	var de *DecompressError
	return errors.As(err, &de)
}
